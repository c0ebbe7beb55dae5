package gift

// Question is one fixed, single-select quiz question.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// HasOption reports whether choice is one of the question's options.
func (q Question) HasOption(choice string) bool {
	for _, o := range q.Options {
		if o == choice {
			return true
		}
	}
	return false
}

var catalog = []GiftItem{
	{
		ID:          1,
		ASIN:        "B08N5WRWNW",
		Title:       "Echo Dot (4th Gen) Smart Speaker with Alexa",
		Price:       79.99,
		Image:       "https://images.unsplash.com/photo-1543512214-318c7553f230?w=400&h=400&fit=crop",
		Description: "Smart speaker with premium sound and voice control",
		Category:    "Electronics",
		Rating:      4.5,
		ReviewCount: 45620,
	},
	{
		ID:          2,
		ASIN:        "B07FZ8S74R",
		Title:       "Hydroflask Water Bottle - 32oz",
		Price:       44.95,
		Image:       "https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=400&h=400&fit=crop",
		Description: "Insulated stainless steel water bottle",
		Category:    "Sports & Outdoors",
		Rating:      4.7,
		ReviewCount: 12450,
	},
	{
		ID:          3,
		ASIN:        "B0863TXGM3",
		Title:       "Wireless Bluetooth Headphones",
		Price:       89.99,
		Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=400&fit=crop",
		Description: "Noise-cancelling over-ear headphones",
		Category:    "Electronics",
		Rating:      4.3,
		ReviewCount: 8930,
	},
	{
		ID:          4,
		ASIN:        "B09JQMJSXY",
		Title:       "Cozy Knit Throw Blanket",
		Price:       56.99,
		Image:       "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=400&h=400&fit=crop",
		Description: "Soft chunky knit blanket for home comfort",
		Category:    "Home & Garden",
		Rating:      4.6,
		ReviewCount: 2340,
	},
	{
		ID:          5,
		ASIN:        "B08HLZXQCH",
		Title:       "Premium Coffee Bean Grinder",
		Price:       95.00,
		Image:       "https://images.unsplash.com/photo-1504627298434-2119874ac3d4?w=400&h=400&fit=crop",
		Description: "Burr grinder for perfect coffee every time",
		Category:    "Kitchen & Dining",
		Rating:      4.4,
		ReviewCount: 5670,
	},
	{
		ID:          6,
		ASIN:        "B07XTQZJ6X",
		Title:       "Leather Crossbody Bag",
		Price:       72.50,
		Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400&h=400&fit=crop",
		Description: "Genuine leather crossbody bag with adjustable strap",
		Category:    "Fashion",
		Rating:      4.2,
		ReviewCount: 3450,
	},
	{
		ID:          7,
		ASIN:        "B09KMVNY7Z",
		Title:       "Aromatherapy Essential Oil Diffuser",
		Price:       65.99,
		Image:       "https://images.unsplash.com/photo-1610725664285-7c57e6eeac3f?w=400&h=400&fit=crop",
		Description: "Ultrasonic diffuser with 7-color LED lights",
		Category:    "Health & Beauty",
		Rating:      4.5,
		ReviewCount: 7890,
	},
	{
		ID:          8,
		ASIN:        "B08GKQZXTY",
		Title:       "Gourmet Chocolate Gift Set",
		Price:       84.99,
		Image:       "https://images.unsplash.com/photo-1549007994-cb92caebd54b?w=400&h=400&fit=crop",
		Description: "Artisan dark chocolate collection in gift box",
		Category:    "Food & Beverages",
		Rating:      4.8,
		ReviewCount: 1230,
	},
	{
		ID:          9,
		ASIN:        "B07HQMH7XR",
		Title:       "Succulent Plant Care Kit",
		Price:       52.99,
		Image:       "https://images.unsplash.com/photo-1459411621453-7b03977f4bfc?w=400&h=400&fit=crop",
		Description: "Complete kit with tools and mini succulents",
		Category:    "Home & Garden",
		Rating:      4.3,
		ReviewCount: 4560,
	},
	{
		ID:          10,
		ASIN:        "B09RTXM8PQ",
		Title:       "Yoga Mat with Alignment Lines",
		Price:       68.00,
		Image:       "https://images.unsplash.com/photo-1506629905496-f1f5dfe2e3b8?w=400&h=400&fit=crop",
		Description: "Premium eco-friendly yoga mat with carrying strap",
		Category:    "Sports & Outdoors",
		Rating:      4.6,
		ReviewCount: 6780,
	},
}

var questions = []Question{
	{
		ID:   1,
		Text: "What's your relationship to the gift recipient?",
		Options: []string{
			"Family member",
			"Close friend",
			"Colleague",
			"Romantic partner",
			"Acquaintance",
		},
	},
	{
		ID:   2,
		Text: "What are their main hobbies or interests?",
		Options: []string{
			"Technology & gadgets",
			"Fitness & wellness",
			"Home & cooking",
			"Arts & crafts",
			"Reading & learning",
			"Music & entertainment",
			"Travel & adventure",
			"Fashion & beauty",
		},
	},
	{
		ID:   3,
		Text: "What's your budget range?",
		Options: []string{
			"$25-50",
			"$50-100",
			"$100-200",
			"$200+",
		},
	},
}

// Catalog returns a copy of the fixed gift catalog.
func Catalog() []GiftItem {
	out := make([]GiftItem, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogItem looks up a catalog entry by id.
func CatalogItem(id int) (GiftItem, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}
	return GiftItem{}, false
}

// Questions returns a copy of the fixed quiz questions.
func Questions() []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
