package domain

import "time"

// Author is a denormalized copy of the user that created a record.
type Author struct {
	ID       int64
	Username string
}

// Campground is a user-submitted listing.
type Campground struct {
	ID          int64
	Name        string
	Description string
	ImageURL    string
	ImageID     string
	Author      Author
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasImage reports whether both image fields are populated.
func (c *Campground) HasImage() bool {
	return c.ImageURL != "" && c.ImageID != ""
}

// SetImage replaces both image fields at once so they never drift apart.
func (c *Campground) SetImage(asset MediaAsset) {
	c.ImageURL = asset.URL
	c.ImageID = asset.ID
}

// CanBeModifiedBy is the ownership predicate: the author or any admin.
func (c *Campground) CanBeModifiedBy(caller *Identity) bool {
	if caller == nil {
		return false
	}
	return caller.IsAdmin || caller.UserID == c.Author.ID
}

// Comment is a remark left on a campground.
type Comment struct {
	ID           int64
	CampgroundID int64
	Text         string
	Author       Author
	CreatedAt    time.Time
}

// MediaAsset is what the media host returns for an uploaded file.
type MediaAsset struct {
	URL string
	ID  string
}
