package markup

import (
	"encoding/json"
	"strings"

	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
)

// wireProduct accepts both key spellings agents emit.
type wireProduct struct {
	Name                 string `json:"name"`
	NameAlt              string `json:"ime_izdelka"`
	ShortDescription     string `json:"shortDescription"`
	ShortDescriptionAlt  string `json:"short_description"`
	ShortDescriptionAlt2 string `json:"kratek_opis"`
	URL                  string `json:"url"`
	ImageURL             string `json:"imageUrl"`
	ImageURLAlt          string `json:"image_url"`
}

func (w wireProduct) toDomain() domain.Product {
	return domain.Product{
		Name:             firstNonEmpty(w.Name, w.NameAlt),
		ShortDescription: firstNonEmpty(w.ShortDescription, w.ShortDescriptionAlt, w.ShortDescriptionAlt2),
		URL:              w.URL,
		ImageURL:         firstNonEmpty(w.ImageURL, w.ImageURLAlt),
	}
}

// parseProducts decodes a product-cards payload. Anything but a JSON array
// yields no products; array elements that are not product objects are skipped.
func parseProducts(payload string) []domain.Product {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &raw); err != nil {
		return nil
	}

	products := make([]domain.Product, 0, len(raw))
	for _, item := range raw {
		if string(item) == "null" {
			continue
		}
		var w wireProduct
		if err := json.Unmarshal(item, &w); err != nil {
			continue
		}
		products = append(products, w.toDomain())
	}
	return products
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
