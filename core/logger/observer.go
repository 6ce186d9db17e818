package logger

import (
	"catalog-sync/core/reconcile"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapObserver logs reconcile anomalies.
// Per-track degradations are logged at debug level; favorite changes at info.
type ZapObserver struct {
	log *zap.Logger
}

// NewObserver wraps l as a reconcile.Observer.
func NewObserver(l *zap.Logger) *ZapObserver {
	return &ZapObserver{log: l}
}

// Observe implements reconcile.Observer.
func (o *ZapObserver) Observe(e reconcile.Event) {
	level := zapcore.DebugLevel
	if e.Kind == reconcile.EventFavoriteChanged {
		level = zapcore.InfoLevel
	}

	if ce := o.log.Check(level, "Reconcile event"); ce != nil {
		ce.Write(
			zap.String("event", string(e.Kind)),
			zap.String("track_id", e.TrackID),
			zap.String("value", e.Value),
		)
	}
}
