package easypaisa

import "github.com/ncpwheels/featured-payments/internal/adapters/gateways/signing"

// initHash signs merchantId+storeId+orderId+amount+merchantKey, amount in minor units
func initHash(cfg Config, orderID, amountMinor string) string {
	return signing.HMACSHA256Hex(cfg.MerchantKey,
		cfg.MerchantID+cfg.StoreID+orderID+amountMinor+cfg.MerchantKey)
}

// statusHash signs merchantId+storeId+orderId+merchantKey
func statusHash(cfg Config, orderID string) string {
	return signing.HMACSHA256Hex(cfg.MerchantKey,
		cfg.MerchantID+cfg.StoreID+orderID+cfg.MerchantKey)
}

// WebhookHash is the hashKey EasyPaisa sends with a notification. It uses the
// same canonical form as initiation with the amount exactly as posted.
func WebhookHash(cfg Config, orderID, transactionAmount string) string {
	return initHash(cfg, orderID, transactionAmount)
}
