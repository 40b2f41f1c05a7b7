package dto

type StopRequest struct {
	ID              string   `json:"id"`
	Address         string   `json:"address"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Priority        *float64 `json:"priority"`
	TimeWindowStart string   `json:"timeWindowStart"`
	TimeWindowEnd   string   `json:"timeWindowEnd"`
}

type OptimizeOrderRequest struct {
	Stops []StopRequest `json:"stops"`
}

type StopRankResponse struct {
	StopID string `json:"stopId"`
	Rank   int    `json:"rank"`
}

type OptimizeOrderResponse struct {
	OptimizedOrder  []StopRankResponse `json:"optimizedOrder"`
	TotalDistance   float64            `json:"totalDistance"`
	EstimatedTime   int                `json:"estimatedTime"`
	UsedExternalAPI bool               `json:"usedExternalAPI"`
}

type OptimizeRouteResponse struct {
	Optimized       bool               `json:"optimized"`
	OptimizedStops  []StopRankResponse `json:"optimizedStops,omitempty"`
	Distance        string             `json:"distance,omitempty"`
	Time            string             `json:"time,omitempty"`
	UsedExternalAPI bool               `json:"usedExternalAPI"`
	Error           string             `json:"error,omitempty"`
}

type RouteResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Distance      string `json:"distance"`
	EstimatedTime string `json:"estimatedTime"`
	Version       int    `json:"version"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type DistanceResponse struct {
	Distance        float64 `json:"distance"`
	Duration        int     `json:"duration"`
	UsedExternalAPI bool    `json:"usedExternalAPI"`
	Error           string  `json:"error,omitempty"`
}
