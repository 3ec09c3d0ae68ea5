package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	customersCSV = `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,01001,sao paulo,SP
c2,u2,20040,rio de janeiro,RJ
`
	ordersCSV = `order_id,customer_id,order_status,order_purchase_timestamp
oA,c1,delivered,2018-08-25 10:00:00
oB,c2,canceled,2018-08-20 09:30:00
`
	itemsCSV = `order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value
oA,1,p1,s1,2018-08-28 10:00:00,60.00,10.00
oA,2,p2,s1,2018-08-28 10:00:00,40.00,5.00
oB,1,p1,s2,2018-08-22 09:30:00,50.00,8.00
`
	paymentsCSV = `order_id,payment_sequential,payment_type,payment_value
oA,1,credit_card,100.00
oB,1,boleto,58.00
`
	productsCSV = `product_id,product_category_name
p1,cama_mesa_banho
p2,beleza_saude
`
	sellersCSV = `seller_id,seller_zip_code_prefix,seller_city,seller_state
s1,1001,sao paulo,SP
s2,20040,rio de janeiro,RJ
`
	geolocationCSV = `geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state
1001,-23.55,-46.63,sao paulo,SP
20040,-22.90,-43.17,rio de janeiro,RJ
20040,-40.00,-43.17,rio de janeiro,RJ
`
)

func writeFixture(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		FileCustomers:    customersCSV,
		FileOrders:       ordersCSV,
		FileItems:        itemsCSV,
		FilePayments:     paymentsCSV,
		FileProducts:     productsCSV,
		FileSellers:      sellersCSV,
		FileGeolocations: geolocationCSV,
	}
	for name, body := range overrides {
		files[name] = body
	}
	for name, body := range files {
		if body == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
