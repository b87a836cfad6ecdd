package tide

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/wgdzlh/nidem/log"
)

const DefaultBatchSize = 1000

type predictRequest struct {
	Points []predictPoint `json:"points"`
}

type predictPoint struct {
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	Timestamp int64   `json:"timestamp"` // unix秒
}

// 无预测值的点返回null
type predictResponse struct {
	Heights []*float64 `json:"heights"`
}

// 远程潮位预测服务客户端，按批POST JSON，不重试
type Client struct {
	URL       string
	BatchSize int
	HTTP      *http.Client
}

func NewClient(url string) *Client {
	return &Client{URL: url, BatchSize: DefaultBatchSize, HTTP: http.DefaultClient}
}

func (c *Client) Predict(ctx context.Context, pts []Point) (heights []float64, err error) {
	size := c.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	heights = make([]float64, 0, len(pts))
	var part []float64
	for start := 0; start < len(pts); start += size {
		end := min(start+size, len(pts))
		if part, err = c.predictBatch(ctx, pts[start:end]); err != nil {
			heights = nil
			return
		}
		heights = append(heights, part...)
	}
	log.Debug(logTag+"remote predictions", zap.String("url", c.URL), zap.Int("points", len(pts)))
	return
}

func (c *Client) predictBatch(ctx context.Context, pts []Point) (heights []float64, err error) {
	req := predictRequest{Points: make([]predictPoint, len(pts))}
	for i, p := range pts {
		req.Points[i] = predictPoint{Lon: p.Lon, Lat: p.Lat, Timestamp: p.Time.Unix()}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return
	}
	hr.Header.Set("Content-Type", "application/json")
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hr)
	if err != nil {
		log.Error(logTag+"prediction request failed", zap.String("url", c.URL), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err = fmt.Errorf("%w: %s: %s", ErrServiceStatus, resp.Status, bytes.TrimSpace(msg))
		return
	}
	var out predictResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return
	}
	if len(out.Heights) != len(pts) {
		err = fmt.Errorf("%w: sent %d, got %d", ErrResponseLength, len(pts), len(out.Heights))
		return
	}
	heights = make([]float64, len(out.Heights))
	missing := 0
	for i, h := range out.Heights {
		if h == nil {
			heights[i] = math.NaN()
			missing++
			continue
		}
		heights[i] = *h
	}
	if missing > 0 {
		log.Warn(logTag+"service returned no prediction for some points", zap.Int("missing", missing), zap.Int("points", len(pts)))
	}
	return
}
