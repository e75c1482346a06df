package ai

// Source tells the caller where a result came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Response is what every assistant endpoint returns. Degraded is true when
// Result is the static fallback rather than a model answer.
type Response[T any] struct {
	Result   T      `json:"result"`
	Degraded bool   `json:"degraded"`
	Source   Source `json:"source"`
}

type DiseaseDiagnosis struct {
	Disease     string  `json:"disease" validate:"required"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=100"`
	Description string  `json:"description" validate:"required"`
	Treatment   string  `json:"treatment" validate:"required"`
}

type PricePoint struct {
	Month string  `json:"month" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type PriceForecastDetail struct {
	AvgPrice    float64      `json:"avgPrice" validate:"gte=0"`
	MinPrice    float64      `json:"minPrice" validate:"gte=0,ltefield=AvgPrice"`
	MaxPrice    float64      `json:"maxPrice" validate:"gtefield=AvgPrice"`
	PriceChange float64      `json:"priceChange"`
	PriceData   []PricePoint `json:"priceData" validate:"required,min=1,dive"`
}

type PriceForecast struct {
	RecognizedCrop string              `json:"recognizedCrop" validate:"required"`
	Forecast       PriceForecastDetail `json:"forecast"`
}

type TrendingCrop struct {
	Name       string `json:"name" validate:"required"`
	Demand     string `json:"demand" validate:"required,oneof=High Medium Low"`
	PriceTrend string `json:"priceTrend" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

type TrendingCrops struct {
	Region string         `json:"region"`
	Crops  []TrendingCrop `json:"crops" validate:"required,min=1,dive"`
}

type DiversificationOption struct {
	Crop           string `json:"crop" validate:"required"`
	Suitability    string `json:"suitability" validate:"required,oneof=High Medium Low"`
	ExpectedReturn string `json:"expectedReturn" validate:"required"`
	GrowingPeriod  string `json:"growingPeriod" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
}

type DiversificationOptions struct {
	Options []DiversificationOption `json:"options" validate:"required,min=1,dive"`
}

// TrendingRequest asks for crops in demand in a region.
type TrendingRequest struct {
	Region string `json:"region" validate:"required,max=100"`
}

// DiversificationRequest asks what a farm could grow next.
type DiversificationRequest struct {
	CurrentCrops []string `json:"currentCrops" validate:"required,min=1,dive,required,max=50"`
	Region       string   `json:"region" validate:"required,max=100"`
	FarmSize     string   `json:"farmSize" validate:"omitempty,max=50"`
}
