// Package catalog provides the non-track catalog entities returned by search
// and the player/profile entities of the current user.
package catalog

import (
	"fmt"
	"strings"

	"github.com/osa030/muse/internal/domain/candidate"
)

// Album represents a search hit in the album category.
type Album struct {
	URI         string
	Name        string
	Artists     []string
	ReleaseDate string // YYYY, YYYY-MM or YYYY-MM-DD
	Markets     []string
}

// FriendlyName returns the labelled display name.
func (a Album) FriendlyName() string {
	return withBy(candidate.TypeAlbum, a.Name, strings.Join(a.Artists, ", "))
}

// Artist represents a search hit in the artist category.
type Artist struct {
	URI        string
	Name       string
	Popularity int
}

// FriendlyName returns the labelled display name.
func (a Artist) FriendlyName() string {
	return fmt.Sprintf("%s: %s", candidate.TypeArtist.Label(), a.Name)
}

// Show represents a search hit in the podcast show category.
type Show struct {
	URI       string
	Name      string
	Publisher string
	Markets   []string
}

// FriendlyName returns the labelled display name.
func (s Show) FriendlyName() string {
	return withBy(candidate.TypeShow, s.Name, s.Publisher)
}

// Episode represents a search hit in the podcast episode category.
type Episode struct {
	URI      string
	Name     string
	ShowName string
}

// FriendlyName returns the labelled display name.
func (e Episode) FriendlyName() string {
	name := fmt.Sprintf("%s: %s", candidate.TypeEpisode.Label(), e.Name)
	if e.ShowName != "" {
		name += " from " + e.ShowName
	}
	return name
}

// Device represents a playback device of the current user.
type Device struct {
	ID     string
	Name   string
	Type   string
	Active bool
	Volume int
}

// Profile holds the identity of the authenticated user.
type Profile struct {
	UserID      string
	DisplayName string
	Market      string // ISO 3166-1 alpha-2 country code
}

func withBy(t candidate.Type, name, by string) string {
	if by == "" {
		return fmt.Sprintf("%s: %s", t.Label(), name)
	}
	return fmt.Sprintf("%s: %s by %s", t.Label(), name, by)
}
