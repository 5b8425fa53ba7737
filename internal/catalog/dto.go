package catalog

// CategoryInput is the create payload for a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=100"`
}

// CategoryPatch is a partial category update; nil fields are left unchanged.
type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Icon        *string `json:"icon" validate:"omitempty,max=100"`
}

// Apply merges the patch into c.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	return c
}

// ProductInput is the create payload for a product.
type ProductInput struct {
	Name           string       `json:"name" validate:"required,max=200"`
	Description    string       `json:"description"`
	Image          string       `json:"image"`
	CategoryID     int64        `json:"categoryId" validate:"required,gt=0"`
	RetailPrice    float64      `json:"retailPrice" validate:"gt=0"`
	WholesalePrice float64      `json:"wholesalePrice" validate:"gt=0"`
	OriginalPrice  float64      `json:"originalPrice" validate:"gte=0"`
	Stock          int          `json:"stock" validate:"gte=0"`
	Unit           string       `json:"unit" validate:"required"`
	UnitOptions    []UnitOption `json:"unitOptions" validate:"dive"`
	Status         Status       `json:"status" validate:"omitempty,oneof=active limited inactive"`
	IsBestseller   bool         `json:"isBestseller"`
	IsLimited      bool         `json:"isLimited"`
	IsOrganic      bool         `json:"isOrganic"`
	IsLocal        bool         `json:"isLocal"`
	Origin         string       `json:"origin"`
	Rating         float64      `json:"rating" validate:"gte=0,lte=5"`
}

// Product converts the input into a new product with defaults applied.
func (in ProductInput) Product() Product {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	options := in.UnitOptions
	if options == nil {
		options = []UnitOption{}
	}
	return Product{
		Name:           in.Name,
		Description:    in.Description,
		Image:          in.Image,
		CategoryID:     in.CategoryID,
		RetailPrice:    in.RetailPrice,
		WholesalePrice: in.WholesalePrice,
		OriginalPrice:  in.OriginalPrice,
		Stock:          in.Stock,
		Unit:           in.Unit,
		UnitOptions:    options,
		Status:         status,
		IsBestseller:   in.IsBestseller,
		IsLimited:      in.IsLimited,
		IsOrganic:      in.IsOrganic,
		IsLocal:        in.IsLocal,
		Origin:         in.Origin,
		Rating:         in.Rating,
	}
}

// ProductPatch is a partial product update; nil fields are left unchanged.
type ProductPatch struct {
	Name           *string       `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string       `json:"description"`
	Image          *string       `json:"image"`
	CategoryID     *int64        `json:"categoryId" validate:"omitempty,gt=0"`
	RetailPrice    *float64      `json:"retailPrice" validate:"omitempty,gt=0"`
	WholesalePrice *float64      `json:"wholesalePrice" validate:"omitempty,gt=0"`
	OriginalPrice  *float64      `json:"originalPrice" validate:"omitempty,gte=0"`
	Stock          *int          `json:"stock" validate:"omitempty,gte=0"`
	Unit           *string       `json:"unit" validate:"omitempty,min=1"`
	UnitOptions    *[]UnitOption `json:"unitOptions" validate:"omitempty,dive"`
	Status         *Status       `json:"status" validate:"omitempty,oneof=active limited inactive"`
	IsBestseller   *bool         `json:"isBestseller"`
	IsLimited      *bool         `json:"isLimited"`
	IsOrganic      *bool         `json:"isOrganic"`
	IsLocal        *bool         `json:"isLocal"`
	Origin         *string       `json:"origin"`
	Rating         *float64      `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// Apply merges the patch into p.
func (in ProductPatch) Apply(p Product) Product {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.RetailPrice != nil {
		p.RetailPrice = *in.RetailPrice
	}
	if in.WholesalePrice != nil {
		p.WholesalePrice = *in.WholesalePrice
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.UnitOptions != nil {
		p.UnitOptions = *in.UnitOptions
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.IsBestseller != nil {
		p.IsBestseller = *in.IsBestseller
	}
	if in.IsLimited != nil {
		p.IsLimited = *in.IsLimited
	}
	if in.IsOrganic != nil {
		p.IsOrganic = *in.IsOrganic
	}
	if in.IsLocal != nil {
		p.IsLocal = *in.IsLocal
	}
	if in.Origin != nil {
		p.Origin = *in.Origin
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	return p
}
