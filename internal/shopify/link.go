package shopify

import "strings"

// nextLink extracts the rel="next" URL from a Shopify Link header, e.g.
// `<https://shop.myshopify.com/...page_info=abc>; rel="next"`. Returns ""
// when there is no next page.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		open := strings.Index(part, "<")
		close := strings.Index(part, ">")
		if open < 0 || close <= open {
			continue
		}
		return part[open+1 : close]
	}
	return ""
}
