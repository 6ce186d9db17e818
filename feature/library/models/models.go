package models

import "time"

// Server is a remote media server whose catalog is mirrored locally.
type Server struct {
	ID        string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Server) TableName() string { return "servers" }

// Artist is an artist known on one server, keyed by the server's external id.
type Artist struct {
	ServerID string `gorm:"column:server_id;type:varchar(64);primaryKey" json:"server_id"`
	ID       string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name     string `gorm:"column:name;type:varchar(255);index" json:"name"`
}

func (Artist) TableName() string { return "artists" }

// Album is an album known on one server. ArtistID is nil for compilations.
type Album struct {
	ServerID string  `gorm:"column:server_id;type:varchar(64);primaryKey" json:"server_id"`
	ID       string  `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name     string  `gorm:"column:name;type:varchar(255)" json:"name"`
	ArtistID *string `gorm:"column:artist_id;type:varchar(64)" json:"artist_id,omitempty"`
}

func (Album) TableName() string { return "albums" }

// Genre is a shared genre keyed by its normalized name.
type Genre struct {
	Key  string `gorm:"column:genre_key;type:varchar(128);primaryKey" json:"key"`
	Name string `gorm:"column:name;type:varchar(255)" json:"name"`
}

func (Genre) TableName() string { return "genres" }

// Track is the canonical track row.
type Track struct {
	ServerID         string     `gorm:"column:server_id;type:varchar(64);primaryKey" json:"server_id"`
	ID               string     `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Title            string     `gorm:"column:title;type:varchar(512)" json:"title"`
	Duration         float64    `gorm:"column:duration;type:double" json:"duration"`
	TrackNumber      int        `gorm:"column:track_number;type:int" json:"track_number"`
	DiscNumber       int        `gorm:"column:disc_number;type:int" json:"disc_number"`
	Favorite         bool       `gorm:"column:is_favorite;type:tinyint(1)" json:"favorite"`
	PlayCount        int        `gorm:"column:play_count;type:int" json:"play_count"`
	Container        string     `gorm:"column:container;type:varchar(32)" json:"container"`
	DateAdded        *time.Time `gorm:"column:date_added" json:"date_added,omitempty"`
	RawGenres        []string   `gorm:"column:raw_genres;type:text;serializer:json" json:"raw_genres"`
	NormalizedGenres []string   `gorm:"column:normalized_genres;type:text;serializer:json" json:"normalized_genres"`
	UmbrellaGenres   []string   `gorm:"column:umbrella_genres;type:text;serializer:json" json:"umbrella_genres"`
	AlbumID          *string    `gorm:"column:album_id;type:varchar(64);index" json:"album_id,omitempty"`
	ArtistID         *string    `gorm:"column:artist_id;type:varchar(64);index" json:"artist_id,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Track) TableName() string { return "tracks" }

// TrackGenre links a track to a genre. Position keeps classification order.
type TrackGenre struct {
	ServerID string `gorm:"column:server_id;type:varchar(64);primaryKey" json:"server_id"`
	TrackID  string `gorm:"column:track_id;type:varchar(64);primaryKey" json:"track_id"`
	GenreKey string `gorm:"column:genre_key;type:varchar(128);primaryKey" json:"genre_key"`
	Position int    `gorm:"column:position;type:int" json:"position"`
}

func (TrackGenre) TableName() string { return "track_genres" }

// All lists every library model in migration order.
func All() []any {
	return []any{&Server{}, &Artist{}, &Album{}, &Genre{}, &Track{}, &TrackGenre{}}
}
