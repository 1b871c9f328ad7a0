package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"einvoice/pkg/services"
)

var _ services.ActionService = (*Client)(nil)

type submitRequest struct {
	SubmittedBy string `json:"submittedBy"`
}

type mergeRequest struct {
	IDs         []string `json:"ids"`
	SubmittedBy string   `json:"submittedBy"`
}

type exportRequest struct {
	IDs []string `json:"ids"`
}

// SubmitInvoice asks the backend to issue the e-invoice for one invoice.
func (c *Client) SubmitInvoice(ctx context.Context, id, submittedBy string) error {
	const op = "SubmitInvoice"

	if err := checkAction(op, []string{id}, submittedBy); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPost, c.endpoint("", "invoice", id, "submit"), submitRequest{SubmittedBy: submittedBy})
	if err != nil {
		return err
	}
	c.log.Info().Str("invoice_id", id).Str("submitted_by", submittedBy).Msg("Invoice submitted")
	return nil
}

// MergeInvoices merges several invoices into one e-invoice.
func (c *Client) MergeInvoices(ctx context.Context, ids []string, submittedBy string) error {
	const op = "MergeInvoices"

	if err := checkAction(op, ids, submittedBy); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPost, c.endpoint("", "invoice", "merge"), mergeRequest{IDs: ids, SubmittedBy: submittedBy})
	if err != nil {
		return err
	}
	c.log.Info().Strs("invoice_ids", ids).Str("submitted_by", submittedBy).Msg("Invoices merged")
	return nil
}

// RedNote issues a red note against a submitted invoice.
func (c *Client) RedNote(ctx context.Context, id, submittedBy string) error {
	const op = "RedNote"

	if err := checkAction(op, []string{id}, submittedBy); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPost, c.endpoint("", "invoice", id, "red-note"), submitRequest{SubmittedBy: submittedBy})
	if err != nil {
		return err
	}
	c.log.Info().Str("invoice_id", id).Str("submitted_by", submittedBy).Msg("Red note issued")
	return nil
}

// ExportInvoices returns the backend's spreadsheet export of the given invoices.
func (c *Client) ExportInvoices(ctx context.Context, ids []string) ([]byte, error) {
	const op = "ExportInvoices"

	if err := checkIDs(op, ids); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, op, http.MethodPost, c.endpoint("", "invoice", "export"), exportRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	c.log.Info().Int("count", len(ids)).Int("bytes", len(data)).Msg("Invoices exported")
	return data, nil
}

func checkAction(op string, ids []string, submittedBy string) error {
	if err := checkIDs(op, ids); err != nil {
		return err
	}
	if strings.TrimSpace(submittedBy) == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingSubmitter)
	}
	return nil
}

func checkIDs(op string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptySelection)
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s: %w", op, ErrEmptySelection)
		}
	}
	return nil
}
