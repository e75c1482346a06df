package ai

// Static answers served when the model is unavailable or its output is
// rejected. Callers must flag them as degraded.

func FallbackDiagnosis() DiseaseDiagnosis {
	return DiseaseDiagnosis{
		Disease:     "Leaf Blight",
		Confidence:  0,
		Description: "Automatic diagnosis is unavailable. Brown, water-soaked lesions that spread along the leaf are typical of leaf blight.",
		Treatment:   "Remove affected leaves, avoid overhead watering and consult a local agricultural extension officer before applying a fungicide.",
	}
}

func FallbackPriceForecast() PriceForecast {
	return PriceForecast{
		RecognizedCrop: "Unknown",
		Forecast: PriceForecastDetail{
			AvgPrice:    40,
			MinPrice:    32,
			MaxPrice:    48,
			PriceChange: 0,
			PriceData: []PricePoint{
				{Month: "Month 1", Price: 38},
				{Month: "Month 2", Price: 40},
				{Month: "Month 3", Price: 42},
			},
		},
	}
}

func FallbackTrendingCrops(region string) TrendingCrops {
	return TrendingCrops{
		Region: region,
		Crops: []TrendingCrop{
			{Name: "Tomato", Demand: "High", PriceTrend: "Rising", Reason: "Year-round urban demand"},
			{Name: "Onion", Demand: "High", PriceTrend: "Stable", Reason: "Staple with steady consumption"},
			{Name: "Green Chilli", Demand: "Medium", PriceTrend: "Rising", Reason: "Short cycle and good margins"},
		},
	}
}

func FallbackDiversification() DiversificationOptions {
	return DiversificationOptions{
		Options: []DiversificationOption{
			{Crop: "Moong Dal", Suitability: "High", ExpectedReturn: "Moderate", GrowingPeriod: "60-70 days", Reason: "Fixes nitrogen and fits between main seasons"},
			{Crop: "Marigold", Suitability: "Medium", ExpectedReturn: "High", GrowingPeriod: "90 days", Reason: "Festival demand and pest-repelling border crop"},
		},
	}
}
