package checkout

import (
	"github.com/google/uuid"

	pkgerrors "github.com/jtorres-dev/storefront-backend/pkg/errors"
)

// orderIDMetadataKey is the only metadata a checkout session carries. The
// webhook reconciler joins the provider event back to the order through it;
// line items and amounts are never echoed through metadata.
const orderIDMetadataKey = "order_id"

// OrderIDFromMetadata extracts the correlating order id from a checkout
// session's metadata.
func OrderIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw := metadata[orderIDMetadataKey]
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id missing from session metadata")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order id metadata")
	}
	return id, nil
}
