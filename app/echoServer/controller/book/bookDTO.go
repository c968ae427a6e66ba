package book

type BookReq struct {
	Title     string  `json:"title" validate:"required,max=60"`
	Author    string  `json:"author" validate:"required,max=255"`
	Cover     string  `json:"cover" validate:"required,oneof=HARD SOFT"`
	Inventory *int64  `json:"inventory" validate:"omitempty,gte=0"`
	DailyFee  float64 `json:"daily_fee" validate:"required,gte=0"`
}

type BookPatchReq struct {
	Title     *string  `json:"title" validate:"omitempty,min=1,max=60"`
	Author    *string  `json:"author" validate:"omitempty,min=1,max=255"`
	Cover     *string  `json:"cover" validate:"omitempty,oneof=HARD SOFT"`
	Inventory *int64   `json:"inventory" validate:"omitempty,gte=0"`
	DailyFee  *float64 `json:"daily_fee" validate:"omitempty,gte=0"`
}
