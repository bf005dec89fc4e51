package models

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// NewID returns a sortable identifier such as "evt_01J9Z...".
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, ulid.Make().String())
}
