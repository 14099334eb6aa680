package portal

import (
	"encoding/csv"
	"io"
	"time"
)

// WriteWithdrawalsCSV writes the withdrawal queue as CSV for ops exports.
// Column order matches the portal's queue view.
func WriteWithdrawalsCSV(w io.Writer, requests []WithdrawalRequest) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "account_id", "client_name", "amount", "status", "requested_at", "reviewed_at", "reviewed_by", "reason"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range requests {
		reviewedAt := ""
		if r.ReviewedAt != nil {
			reviewedAt = r.ReviewedAt.Format(time.RFC3339)
		}
		record := []string{
			r.ID,
			r.AccountID,
			r.ClientName,
			r.Amount.String(),
			string(r.Status),
			r.RequestedAt.Format(time.RFC3339),
			reviewedAt,
			r.ReviewedBy,
			r.Reason,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
