package cart

import (
	"fmt"
	"net/url"

	"github.com/webtorque7/shop/internal/types/attribute"
)

// Stable action links for a cart line, keyed by the buyable and the
// line's unique data. The UI layer uses these verbatim.

func AddItemLink(productID int64, unique attribute.UniqueData) string {
	return actionLink("add", productID, unique)
}

func RemoveItemLink(productID int64, unique attribute.UniqueData) string {
	return actionLink("remove", productID, unique)
}

func RemoveAllItemLink(productID int64, unique attribute.UniqueData) string {
	return actionLink("removeall", productID, unique)
}

func SetQuantityItemLink(productID int64, unique attribute.UniqueData) string {
	return actionLink("setquantity", productID, unique)
}

func actionLink(action string, productID int64, unique attribute.UniqueData) string {
	link := fmt.Sprintf("/api/cart/%s/%d", action, productID)
	if key := unique.Key(); key != "" {
		link += "?unique=" + url.QueryEscape(key)
	}
	return link
}

// ParseUnique decodes the unique query parameter back into a
// projection.
func ParseUnique(raw string) (attribute.UniqueData, error) {
	return attribute.ParseKey(raw)
}
