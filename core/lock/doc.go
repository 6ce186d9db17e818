// Package lock serializes work per key.
//
// Library syncs for one media source must never overlap. Local covers a
// single process; Redis extends the guarantee to every instance sharing a
// redis server, using SET NX with a random token and a token-checked release
// so an expired holder cannot free someone else's lock.
//
// # Usage
//
//	locker, err := lock.New(cfg.Lock)
//	release, err := locker.TryAcquire(ctx, "server-1")
//	if errors.Is(err, lock.ErrHeld) {
//	    // another sync is running
//	}
//	defer release()
package lock
