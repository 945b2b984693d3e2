package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID prefixes of locally generated entities.
const (
	prefixSupplier   = "supplier"
	prefixPartner    = "dp"
	prefixCustomer   = "customer"
	prefixAllocation = "allocation"
	prefixDelivery   = "delivery"
)

// newID builds "<prefix>_<unix-ms>_<9 random chars>". Uniqueness is assumed,
// not checked.
func newID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}
