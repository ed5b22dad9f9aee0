package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

const (
	// Rate limit conservador: el backend comparte capacidad con la UI.
	requestsPerSec = 10

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client del backend de la plataforma, con rate limiting
// y retries. Implementa ports.RoundProvider y ports.PlacementProvider.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client contra el base URL dado.
func NewClient(base string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

type marketItemJSON struct {
	ID       int64  `json:"id"`
	Bitcode  string `json:"bitcode"`
	Stream   string `json:"stream"`
	CodeName string `json:"codeName"`
	Name     string `json:"name"`
	Horse    int    `json:"horse"`
}

type roundJSON struct {
	ID               int64              `json:"id"`
	Market           []marketItemJSON   `json:"market"`
	PlacementEndTime time.Time          `json:"placementEndTime"`
	EndTime          time.Time          `json:"endTime"`
	InitialValues    map[string]float64 `json:"initialValues"`
}

type placementJSON struct {
	User *struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	MarketItem *struct {
		ID int64 `json:"id"`
	} `json:"marketItem"`
	Amount float64 `json:"amount"`
}

// CurrentRound devuelve la ronda activa para el tipo de juego dado.
func (c *Client) CurrentRound(ctx context.Context, gameType string) (domain.Round, error) {
	u := fmt.Sprintf("%s/api/game/current-round?gameType=%s", c.base, url.QueryEscape(gameType))

	var resp roundJSON
	if err := c.get(ctx, u, &resp); err != nil {
		return domain.Round{}, fmt.Errorf("backend.CurrentRound: %w", err)
	}

	round := domain.Round{
		ID:               resp.ID,
		Market:           make([]domain.MarketItem, len(resp.Market)),
		PlacementEndTime: resp.PlacementEndTime,
		EndTime:          resp.EndTime,
		InitialValues:    resp.InitialValues,
	}
	for i, m := range resp.Market {
		round.Market[i] = domain.MarketItem{
			ID:       m.ID,
			Bitcode:  m.Bitcode,
			Stream:   m.Stream,
			CodeName: m.CodeName,
			Name:     m.Name,
			Horse:    m.Horse,
		}
	}
	return round, nil
}

// RoundPlacements devuelve todas las apuestas de la ronda. Las entradas
// parciales se devuelven tal cual; el agregador las descarta.
func (c *Client) RoundPlacements(ctx context.Context, roundID int64) ([]domain.Placement, error) {
	u := fmt.Sprintf("%s/api/game/rounds/%d/placements", c.base, roundID)

	var resp []placementJSON
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("backend.RoundPlacements: round %d: %w", roundID, err)
	}

	placements := make([]domain.Placement, len(resp))
	for i, p := range resp {
		placements[i] = domain.Placement{Amount: p.Amount}
		if p.User != nil {
			placements[i].User = &domain.PlacementUser{ID: p.User.ID, Username: p.User.Username}
		}
		if p.MarketItem != nil {
			placements[i].MarketItem = &domain.PlacementTarget{ID: p.MarketItem.ID}
		}
	}
	return placements, nil
}

// get hace un GET JSON con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("backend: retrying request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
