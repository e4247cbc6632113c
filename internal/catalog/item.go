// Package catalog holds the items offered for sale and their persistence.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Image is an embedded item picture. Data carries the raw payload base64
// encoded, matching the persisted document format.
type Image struct {
	Mimetype string `json:"mimetype"`
	Data     string `json:"data"`
}

// Item is one account in the catalog. Price is kept as entered by the admin
// and only parsed when arithmetic is needed.
type Item struct {
	ID       int    `json:"id" db:"id"`
	Elo      string `json:"elo" db:"elo"`
	Skins    string `json:"skins" db:"skins"`
	Price    string `json:"price" db:"price"`
	Email    string `json:"email" db:"email"`
	Password string `json:"password" db:"password"`
	Obs      string `json:"obs" db:"obs"`
	Image    *Image `json:"image,omitempty" db:"-"`
	AddedAt  string `json:"addedAt" db:"added_at"`
}

// PriceAmount parses the stored price text into a number. Both "150.00" and
// "150,00" are accepted since admins type either.
func (it Item) PriceAmount() (float64, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(it.Price, ",", "."))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("catalog: invalid price %q for item %d: %w", it.Price, it.ID, err)
	}
	return v, nil
}

// Now returns the creation timestamp in the persisted format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// NextID assigns ids monotonically: 1 for an empty catalog, max+1 otherwise.
// Ids are immutable once assigned, so gaps from removals are never reused
// downward.
func NextID(items []Item) int {
	next := 1
	for _, it := range items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	return next
}
