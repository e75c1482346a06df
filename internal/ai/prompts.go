package ai

import (
	"fmt"
	"strings"
)

const jsonOnly = "Answer with a single JSON object and nothing else. Do not wrap it in Markdown."

const DiseasePrompt = `You are an agronomist. Examine the crop in this photo and identify the most likely disease.
Return {"disease": string, "confidence": number between 0 and 100, "description": string, "treatment": string}.
If the plant looks healthy use "Healthy" as the disease. ` + jsonOnly

const PriceForecastPrompt = `Identify the crop in this photo and forecast its Indian wholesale market price per kg for the next six months.
Return {"recognizedCrop": string, "forecast": {"avgPrice": number, "minPrice": number, "maxPrice": number,
"priceChange": number (percent), "priceData": [{"month": string, "price": number}]}}. ` + jsonOnly

func TrendingPrompt(region string) string {
	return fmt.Sprintf(`List five crops currently in high market demand in %s, India.
Return {"region": string, "crops": [{"name": string, "demand": "High"|"Medium"|"Low", "priceTrend": string, "reason": string}]}. %s`,
		region, jsonOnly)
}

func DiversificationPrompt(req DiversificationRequest) string {
	size := req.FarmSize
	if size == "" {
		size = "unspecified"
	}
	return fmt.Sprintf(`A farm in %s of size %s currently grows %s. Suggest up to five crops to diversify into.
Return {"options": [{"crop": string, "suitability": "High"|"Medium"|"Low", "expectedReturn": string,
"growingPeriod": string, "reason": string}]}. %s`,
		req.Region, size, strings.Join(req.CurrentCrops, ", "), jsonOnly)
}
