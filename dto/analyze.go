package dto

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

type AnalyzeRequest struct {
	IPs []string `json:"ips"`
}

// IPInfo is the geolocation enrichment for a single address. String fields
// fall back to the "Unknown" sentinel when the lookup fails; Lat/Lon stay
// nil in that case so consumers never plot a fabricated 0,0.
type IPInfo struct {
	Country string   `json:"country"`
	Region  string   `json:"region"`
	City    string   `json:"city"`
	ISP     string   `json:"isp"`
	Org     string   `json:"org"`
	AS      string   `json:"as"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type Reputation struct {
	Status           string   `json:"status"`
	ConfidenceScore  float64  `json:"confidence_score,omitempty"`
	RiskFactors      []string `json:"risk_factors,omitempty"`
	ThreatCategories []string `json:"threat_categories,omitempty"`
	Recommendations  []string `json:"recommendations,omitempty"`
	Sources          []string `json:"sources,omitempty"`
	LastReported     string   `json:"last_reported,omitempty"`
	Details          string   `json:"details,omitempty"`
}

type AnalysisResult struct {
	IP         string      `json:"ip"`
	IPInfo     *IPInfo     `json:"ipInfo"`
	Reputation *Reputation `json:"reputation"`
	Status     string      `json:"status"`
	Error      string      `json:"error,omitempty"`
}

type AnalyzeResponse struct {
	Results []AnalysisResult `json:"results"`
}

// LegacyResult is the flat per-IP shape the first dashboard build consumed.
// It only exists as a boundary translation; nothing internal carries it.
type LegacyResult struct {
	IP      string   `json:"ip"`
	Country string   `json:"country"`
	Region  string   `json:"region"`
	City    string   `json:"city"`
	ISP     string   `json:"isp"`
	Org     string   `json:"org"`
	AS      string   `json:"as"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

type LegacyAnalyzeResponse struct {
	Results []LegacyResult `json:"results"`
}

func (r AnalysisResult) ToLegacy() LegacyResult {
	legacy := LegacyResult{
		IP:      r.IP,
		Country: "N/A",
		Region:  "N/A",
		City:    "N/A",
		ISP:     "N/A",
		Org:     "N/A",
		AS:      "N/A",
	}

	if r.IPInfo == nil {
		return legacy
	}

	legacy.Country = legacyField(r.IPInfo.Country)
	legacy.Region = legacyField(r.IPInfo.Region)
	legacy.City = legacyField(r.IPInfo.City)
	legacy.ISP = legacyField(r.IPInfo.ISP)
	legacy.Org = legacyField(r.IPInfo.Org)
	legacy.AS = legacyField(r.IPInfo.AS)
	legacy.Lat = r.IPInfo.Lat
	legacy.Lon = r.IPInfo.Lon
	return legacy
}

func ToLegacyResponse(results []AnalysisResult) LegacyAnalyzeResponse {
	legacy := make([]LegacyResult, len(results))
	for i, r := range results {
		legacy[i] = r.ToLegacy()
	}
	return LegacyAnalyzeResponse{Results: legacy}
}

func legacyField(v string) string {
	if v == "" || v == "Unknown" {
		return "N/A"
	}
	return v
}
