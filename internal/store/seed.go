package store

// Seed returns the example products used when nothing has been persisted yet.
func Seed() []Product {
	return []Product{
		{ID: "1", Name: "Fabric softener", Category: "Hygiene", Description: "Softens fabrics and reduces static cling."},
		{ID: "2", Name: "Fabric soap", Category: "Hygiene", Description: "Cleans fabrics effectively and removes stains."},
		{ID: "3", Name: "Shampoo", Category: "Hygiene", Description: "Cleans and nourishes hair, leaving it shiny and healthy."},
	}
}
