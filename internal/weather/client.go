// Package weather checks rain forecasts for outdoor facilities.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const requestTimeout = 10 * time.Second

// Client queries the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
	}
}

type forecastResponse struct {
	Daily struct {
		Time                        []string  `json:"time"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// DailyRainProbability returns the maximum precipitation probability (0-100)
// for the given date (YYYY-MM-DD) at the coordinates.
func (c *Client) DailyRainProbability(ctx context.Context, latitude, longitude float64, date string) (float64, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	query.Set("daily", "precipitation_probability_max")
	query.Set("start_date", date)
	query.Set("end_date", date)
	query.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("forecast request failed: %s", resp.Status)
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return 0, fmt.Errorf("decode forecast: %w", err)
	}
	if len(forecast.Daily.PrecipitationProbabilityMax) == 0 {
		return 0, fmt.Errorf("forecast has no precipitation data for %s", date)
	}

	return forecast.Daily.PrecipitationProbabilityMax[0], nil
}
