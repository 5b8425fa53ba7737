package seed

import (
	"github.com/greengrocer/storefront/internal/auth"
	"github.com/greengrocer/storefront/internal/catalog"
)

var categories = []catalog.CategoryInput{
	{Name: "Fruits", Description: "Fresh fruits from local and international farms", Icon: "fa-apple-alt"},
	{Name: "Vegetables", Description: "Organic and conventional vegetables", Icon: "fa-carrot"},
	{Name: "Dairy", Description: "Milk, cheese, and other dairy products", Icon: "fa-cheese"},
	{Name: "Bakery", Description: "Fresh bread and baked goods", Icon: "fa-bread-slice"},
	{Name: "Meat", Description: "Fresh and frozen meat products", Icon: "fa-drumstick-bite"},
	{Name: "Organic", Description: "Certified organic products", Icon: "fa-seedling"},
}

func products(categoryIDs map[string]int64) []catalog.ProductInput {
	return []catalog.ProductInput{
		{
			Name:           "Organic Apples",
			Description:    "Fresh, crisp organic apples straight from the orchard.",
			Image:          "https://images.unsplash.com/photo-1546630392-e4faba405ecb?auto=format&fit=crop&w=500&h=350&q=80",
			CategoryID:     categoryIDs["Fruits"],
			RetailPrice:    32.99,
			WholesalePrice: 24.99,
			OriginalPrice:  29.99,
			Stock:          142,
			Unit:           "case",
			UnitOptions: []catalog.UnitOption{
				{Value: "case", Label: "Case (40 ct)", Price: 24.99},
				{Value: "half-case", Label: "Half Case (20 ct)", Price: 14.99},
				{Value: "lb", Label: "Per lb", Price: 2.49},
			},
			Status:       catalog.StatusActive,
			IsBestseller: true,
			IsOrganic:    true,
			Origin:       "Washington",
			Rating:       4.8,
		},
		{
			Name:           "Fresh Carrots",
			Description:    "Sweet, crunchy carrots perfect for cooking or snacking.",
			Image:          "https://images.unsplash.com/photo-1601648764658-cf37e8c89b70?auto=format&fit=crop&w=500&h=350&q=80",
			CategoryID:     categoryIDs["Vegetables"],
			RetailPrice:    22.00,
			WholesalePrice: 18.50,
			OriginalPrice:  22.00,
			Stock:          450,
			Unit:           "case",
			UnitOptions: []catalog.UnitOption{
				{Value: "case", Label: "Case (20 lb)", Price: 18.50},
				{Value: "half-case", Label: "Half Case (10 lb)", Price: 10.99},
				{Value: "lb", Label: "Per lb", Price: 1.99},
			},
			Status:  catalog.StatusActive,
			IsLocal: true,
			Rating:  4.5,
		},
		{
			Name:           "Organic Strawberries",
			Description:    "Sweet, juicy organic strawberries, freshly picked.",
			Image:          "https://images.unsplash.com/photo-1550989460-0adf9ea622e2?auto=format&fit=crop&w=500&h=350&q=80",
			CategoryID:     categoryIDs["Fruits"],
			RetailPrice:    38.00,
			WholesalePrice: 32.50,
			OriginalPrice:  38.00,
			Stock:          84,
			Unit:           "flat",
			UnitOptions: []catalog.UnitOption{
				{Value: "flat", Label: "Flat (8 qt)", Price: 32.50},
				{Value: "half-flat", Label: "Half Flat (4 qt)", Price: 18.25},
				{Value: "quart", Label: "Single Quart", Price: 5.99},
			},
			Status:    catalog.StatusActive,
			IsLimited: true,
			IsOrganic: true,
			Origin:    "California",
			Rating:    4.9,
		},
		{
			Name:           "Premium Milk",
			Description:    "Rich, creamy whole milk from grass-fed cows.",
			Image:          "https://images.unsplash.com/photo-1593114070538-560c8b7e83e5?auto=format&fit=crop&w=500&h=350&q=80",
			CategoryID:     categoryIDs["Dairy"],
			RetailPrice:    34.99,
			WholesalePrice: 28.99,
			OriginalPrice:  34.99,
			Stock:          90,
			Unit:           "case",
			UnitOptions: []catalog.UnitOption{
				{Value: "case", Label: "Case (12 bottles)", Price: 28.99},
				{Value: "half-case", Label: "Half Case (6 bottles)", Price: 15.99},
				{Value: "bottle", Label: "Single Bottle", Price: 2.99},
			},
			Status:  catalog.StatusActive,
			IsLocal: true,
			Rating:  4.7,
		},
	}
}

var accounts = []account{
	{
		password: "admin123",
		user: auth.User{
			Username:  "admin",
			Email:     "admin@greengrocer.com",
			Role:      auth.RoleAdmin,
			FirstName: "Admin",
			LastName:  "User",
		},
	},
	{
		password: "wholesale123",
		user: auth.User{
			Username:    "wholesale",
			Email:       "wholesale@example.com",
			Role:        auth.RoleWholesale,
			CompanyName: "Restaurant Supply Co",
			FirstName:   "Wholesale",
			LastName:    "Customer",
			Phone:       "555-123-4567",
			Address:     "123 Business St, Commerce City, CA 90001",
		},
	},
	{
		password: "retail123",
		user: auth.User{
			Username:  "retail",
			Email:     "retail@example.com",
			Role:      auth.RoleRetail,
			FirstName: "Retail",
			LastName:  "Customer",
			Phone:     "555-987-6543",
			Address:   "456 Main St, Anytown, CA 90002",
		},
	},
}
