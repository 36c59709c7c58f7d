package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CensorKindEmoji is the only censor kind currently in use. The kind tag is
// stored so future mask kinds (blur, solid) can coexist with old documents.
const CensorKindEmoji = "emoji"

// Censor is one masked region on one image. All numeric fields are percentages
// of the image's intrinsic box in [0,100], never pixels, so the same censor
// list renders correctly at editor, reader, and email sizes.
type Censor struct {
	ID     string  `bson:"id" json:"id"`
	Kind   string  `bson:"kind" json:"kind"`
	Emoji  string  `bson:"emoji" json:"emoji"`
	X      float64 `bson:"x" json:"x"`
	Y      float64 `bson:"y" json:"y"`
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
	Locked bool    `bson:"locked" json:"locked"`
}

// Image is one page of a comic. Display and email order is Order ascending.
type Image struct {
	URL        string   `bson:"url" json:"url"`
	StorageKey string   `bson:"storageKey" json:"-"` // object key in S3
	Order      int      `bson:"order" json:"order"`
	Censors    []Censor `bson:"censors,omitempty" json:"censors,omitempty"`
}

// Comic is one publishable unit. SentAt and Recipients record only the most
// recent send (last-write-wins; no per-send history is kept).
type Comic struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Images      []Image            `bson:"images" json:"images"`
	Published   bool               `bson:"published" json:"published"`
	SentAt      *time.Time         `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	Recipients  int                `bson:"recipients" json:"recipients"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SortedImages returns the comic's images in display order without mutating
// the stored slice.
func (c *Comic) SortedImages() []Image {
	imgs := make([]Image, len(c.Images))
	copy(imgs, c.Images)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Order < imgs[j].Order })
	return imgs
}
