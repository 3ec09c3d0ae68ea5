package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/geo"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"go.uber.org/multierr"
)

// Format is the output encoding of an export.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts "xlsx" or "json" in any case.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid report format %q", value)
	}
}

// Source is the subset of the dashboard service an export reads from.
type Source interface {
	Overview(ctx context.Context, r dataset.DateRange) (*dashboard.Overview, error)
	Leaderboard(ctx context.Context, r dataset.DateRange, side enums.Side, limit int) (*dashboard.Leaderboard, error)
	RFM(ctx context.Context, r dataset.DateRange, window enums.RFMWindow) (*dashboard.RFMSection, error)
	CategoryCounts(ctx context.Context, r dataset.DateRange, side enums.Side, state string) ([]geo.CategoryCount, error)
}

// Request selects what a bundle covers.
type Request struct {
	Range  dataset.DateRange
	Window enums.RFMWindow
	Limit  int
}

// Bundle is every exported section for one date range.
type Bundle struct {
	GeneratedAt         time.Time              `json:"generated_at"`
	Overview            *dashboard.Overview    `json:"overview"`
	SellerLeaderboard   *dashboard.Leaderboard `json:"seller_leaderboard"`
	CustomerLeaderboard *dashboard.Leaderboard `json:"customer_leaderboard"`
	RFM                 *dashboard.RFMSection  `json:"rfm"`
	Demand              []geo.CategoryCount    `json:"demand"`
	Supply              []geo.CategoryCount    `json:"supply"`
}

// Collect reads every section from src.
func Collect(ctx context.Context, src Source, req Request, now time.Time) (*Bundle, error) {
	b := &Bundle{GeneratedAt: now.UTC()}
	var err error
	if b.Overview, err = src.Overview(ctx, req.Range); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	if b.SellerLeaderboard, err = src.Leaderboard(ctx, req.Range, enums.SideSeller, req.Limit); err != nil {
		return nil, fmt.Errorf("seller leaderboard: %w", err)
	}
	if b.CustomerLeaderboard, err = src.Leaderboard(ctx, req.Range, enums.SideCustomer, req.Limit); err != nil {
		return nil, fmt.Errorf("customer leaderboard: %w", err)
	}
	if b.RFM, err = src.RFM(ctx, req.Range, req.Window); err != nil {
		return nil, fmt.Errorf("rfm: %w", err)
	}
	if b.Demand, err = src.CategoryCounts(ctx, req.Range, enums.SideCustomer, ""); err != nil {
		return nil, fmt.Errorf("demand: %w", err)
	}
	if b.Supply, err = src.CategoryCounts(ctx, req.Range, enums.SideSeller, ""); err != nil {
		return nil, fmt.Errorf("supply: %w", err)
	}
	return b, nil
}

// WriteJSON encodes the bundle as indented JSON.
func WriteJSON(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// Export writes the bundle to path in the given format, creating parent directories.
func Export(path string, format Format, b *Bundle) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
		if err != nil {
			err = multierr.Append(err, removePartial(path))
		}
	}()

	switch format {
	case FormatJSON:
		return WriteJSON(file, b)
	case FormatXLSX:
		return WriteXLSX(file, b)
	default:
		return fmt.Errorf("invalid report format %q", format)
	}
}

func removePartial(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove partial report: %w", err)
	}
	return nil
}

// TimestampedFilename names an export after its generation time.
func TimestampedFilename(baseDir, name string, format Format, now time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), format))
}
