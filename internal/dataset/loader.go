package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/angelmondragon/olist-insights/pkg/logger"
	"github.com/angelmondragon/olist-insights/pkg/metrics"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	TableCustomers    = "customers"
	TableOrders       = "orders"
	TableItems        = "order_items"
	TablePayments     = "order_payments"
	TableProducts     = "products"
	TableSellers      = "sellers"
	TableGeolocations = "geolocation"
)

// Source file names inside the data directory.
const (
	FileCustomers    = "df_customer_clean.csv"
	FileOrders       = "df_order_clean.csv"
	FileItems        = "df_order_items_clean.csv"
	FilePayments     = "df_order_payments_clean.csv"
	FileProducts     = "df_product_clean.csv"
	FileSellers      = "df_sellers_clean.csv"
	FileGeolocations = "df_geolocation_clean.csv"
)

const loadConcurrency = 4

// Loader reads the seven source tables from a directory.
type Loader struct {
	dir         string
	minLatitude float64
	logg        *logger.Logger
	metrics     *metrics.PipelineMetrics
}

// NewLoader builds a loader for the configured data directory.
func NewLoader(cfg config.DataConfig, logg *logger.Logger, m *metrics.PipelineMetrics) *Loader {
	return &Loader{
		dir:         cfg.Dir,
		minLatitude: cfg.MinLatitude,
		logg:        logg,
		metrics:     m,
	}
}

type tableFile struct {
	name string
	file string
	read func(t *Tables, file string, body []byte) error
}

// Load reads every table concurrently and reports all failing files at once.
func (l *Loader) Load(ctx context.Context) (*Tables, error) {
	started := time.Now()
	files := []tableFile{
		{TableCustomers, FileCustomers, readCustomers},
		{TableOrders, FileOrders, readOrders},
		{TableItems, FileItems, readItems},
		{TablePayments, FilePayments, readPayments},
		{TableProducts, FileProducts, readProducts},
		{TableSellers, FileSellers, readSellers},
		{TableGeolocations, FileGeolocations, l.readGeolocations},
	}

	var (
		tables Tables
		errs   = make([]error, len(files))
		sums   = make([]uint64, len(files))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, tf := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			body, err := os.ReadFile(filepath.Join(l.dir, tf.file))
			if err != nil {
				errs[i] = pkgerrors.Wrap(pkgerrors.CodeDataLoad, err, "open source table").
					WithDetails(map[string]any{"file": tf.file})
				return nil
			}
			sums[i] = xxhash.Sum64(body)
			errs[i] = tf.read(&tables, tf.file, body)
			return nil
		})
	}
	_ = g.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	tables.Token = combineTokens(sums)

	for table, rows := range tables.Counts() {
		l.metrics.SetRows(table, rows)
	}
	l.metrics.ObserveStage("load", time.Since(started))
	if l.logg != nil {
		ctx = l.logg.WithFields(ctx, map[string]any{
			"dir":        l.dir,
			"token":      tables.Token.String(),
			"row_counts": tables.Counts(),
		})
		l.logg.Info(ctx, "dataset loaded")
	}
	return &tables, nil
}

// Each reader writes a distinct field of Tables, so concurrent readers never race.

func readCustomers(t *Tables, file string, body []byte) error {
	var rows []Customer
	err := readCSV(file, body, []string{"customer_id", "customer_zip_code_prefix", "customer_city", "customer_state"}, func(r record) error {
		id, err := r.RequiredString("customer_id")
		if err != nil {
			return err
		}
		rows = append(rows, Customer{
			ID:        id,
			UniqueID:  r.String("customer_unique_id"),
			ZipPrefix: r.Zip("customer_zip_code_prefix"),
			City:      r.String("customer_city"),
			State:     r.String("customer_state"),
		})
		return nil
	})
	t.Customers = rows
	return err
}

func readOrders(t *Tables, file string, body []byte) error {
	var rows []Order
	err := readCSV(file, body, []string{"order_id", "customer_id", "order_status", "order_purchase_timestamp"}, func(r record) error {
		id, err := r.RequiredString("order_id")
		if err != nil {
			return err
		}
		purchased, err := r.Time("order_purchase_timestamp")
		if err != nil {
			return err
		}
		// Unknown statuses are kept; they simply never match a countable set.
		status := enums.OrderStatus(r.String("order_status"))
		if parsed, perr := enums.ParseOrderStatus(string(status)); perr == nil {
			status = parsed
		}
		rows = append(rows, Order{
			ID:          id,
			CustomerID:  r.String("customer_id"),
			Status:      status,
			PurchasedAt: purchased,
		})
		return nil
	})
	t.Orders = rows
	return err
}

func readItems(t *Tables, file string, body []byte) error {
	var rows []OrderItem
	err := readCSV(file, body, []string{"order_id", "product_id", "seller_id", "shipping_limit_date", "price", "freight_value"}, func(r record) error {
		id, err := r.RequiredString("order_id")
		if err != nil {
			return err
		}
		seq, err := r.Int("order_item_id")
		if err != nil {
			return err
		}
		limit, err := r.Time("shipping_limit_date")
		if err != nil {
			return err
		}
		price, err := r.Decimal("price")
		if err != nil {
			return err
		}
		freight, err := r.Decimal("freight_value")
		if err != nil {
			return err
		}
		rows = append(rows, OrderItem{
			OrderID:       id,
			ItemSeq:       seq,
			ProductID:     r.String("product_id"),
			SellerID:      r.String("seller_id"),
			ShippingLimit: limit,
			Price:         price,
			Freight:       freight,
		})
		return nil
	})
	t.Items = rows
	return err
}

func readPayments(t *Tables, file string, body []byte) error {
	var rows []Payment
	err := readCSV(file, body, []string{"order_id", "payment_value"}, func(r record) error {
		id, err := r.RequiredString("order_id")
		if err != nil {
			return err
		}
		seq, err := r.Int("payment_sequential")
		if err != nil {
			return err
		}
		value, err := r.Decimal("payment_value")
		if err != nil {
			return err
		}
		rows = append(rows, Payment{
			OrderID:  id,
			Sequence: seq,
			Type:     r.String("payment_type"),
			Value:    value,
		})
		return nil
	})
	t.Payments = rows
	return err
}

func readProducts(t *Tables, file string, body []byte) error {
	var rows []Product
	err := readCSV(file, body, []string{"product_id", "product_category_name"}, func(r record) error {
		id, err := r.RequiredString("product_id")
		if err != nil {
			return err
		}
		rows = append(rows, Product{ID: id, Category: r.String("product_category_name")})
		return nil
	})
	t.Products = rows
	return err
}

func readSellers(t *Tables, file string, body []byte) error {
	var rows []Seller
	err := readCSV(file, body, []string{"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state"}, func(r record) error {
		id, err := r.RequiredString("seller_id")
		if err != nil {
			return err
		}
		rows = append(rows, Seller{
			ID:        id,
			ZipPrefix: r.Zip("seller_zip_code_prefix"),
			City:      r.String("seller_city"),
			State:     r.String("seller_state"),
		})
		return nil
	})
	t.Sellers = rows
	return err
}

func (l *Loader) readGeolocations(t *Tables, file string, body []byte) error {
	var (
		rows    []Geolocation
		dropped int
	)
	err := readCSV(file, body, []string{"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng"}, func(r record) error {
		lat, err := r.Float("geolocation_lat")
		if err != nil {
			return err
		}
		lng, err := r.Float("geolocation_lng")
		if err != nil {
			return err
		}
		if lat <= l.minLatitude {
			dropped++
			return nil
		}
		rows = append(rows, Geolocation{
			ZipPrefix: r.Zip("geolocation_zip_code_prefix"),
			Lat:       lat,
			Lng:       lng,
			City:      r.String("geolocation_city"),
			State:     r.String("geolocation_state"),
		})
		return nil
	})
	t.Geolocations = rows
	if err == nil && dropped > 0 && l.logg != nil {
		l.logg.Debug(l.logg.WithField(context.Background(), "dropped", dropped), fmt.Sprintf("geolocation rows at or below latitude %.1f dropped", l.minLatitude))
	}
	return err
}
