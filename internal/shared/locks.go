package shared

import "fmt"

// BalanceAuditKey names the redis key holding the last balance audit summary.
func BalanceAuditKey(businessID int64) string {
	return fmt.Sprintf("ledger:audit:%d:last", businessID)
}
