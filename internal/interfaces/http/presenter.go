package http

import (
	"time"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

func toDocumentResponse(d *entity.Document) dto.DocumentResponse {
	out := dto.DocumentResponse{
		ID:                 d.ID,
		Number:             d.Number,
		Type:               string(d.Type),
		Date:               d.Date,
		Status:             string(d.Status),
		CreatedBy:          d.CreatedBy,
		SignedBy:           d.SignedBy,
		SignedAt:           d.SignedAt,
		SupplierID:         d.SupplierID,
		InvoiceNumber:      d.InvoiceNumber,
		InvoiceDate:        d.InvoiceDate,
		CustomerName:       d.CustomerName,
		CustomerInfo:       d.CustomerInfo,
		WriteOffReason:     d.WriteOffReason,
		Commission:         d.Commission,
		CorrectionType:     string(d.CorrectionType),
		CorrectionReason:   d.CorrectionReason,
		OriginalDocumentID: d.OriginalDocumentID,
		Notes:              d.Notes,
		Amount:             d.Amount,
		TotalQuantity:      d.TotalQuantity(),
		Lines:              make([]dto.DocumentLineResponse, 0, len(d.Lines)),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, dto.DocumentLineResponse{
			ID:              l.ID,
			Position:        l.Position,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			SellingPrice:    l.SellingPrice,
			Total:           l.Total(),
			Series:          l.Series,
			ExpirationDate:  l.ExpirationDate,
			CreatedBatchID:  l.CreatedBatchID,
			SourceBatchID:   l.SourceBatchID,
			OldValue:        l.OldValue,
			NewValue:        l.NewValue,
			CorrectionNotes: l.CorrectionNotes,
		})
	}
	for _, corr := range d.Corrections {
		out.Corrections = append(out.Corrections, toDocumentResponse(corr))
	}
	return out
}

func toBatchResponses(batches []*entity.Batch, today time.Time) []dto.BatchResponse {
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchResponse(b, today))
	}
	return out
}

func toBatchResponse(b *entity.Batch, today time.Time) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                 b.ID,
		ProductID:          b.ProductID,
		SupplierID:         b.SupplierID,
		Series:             b.Series,
		ExpirationDate:     b.ExpirationDate,
		ArrivalDate:        b.ArrivalDate,
		DaysToExpiry:       b.DaysToExpiry(today),
		Quantity:           b.Quantity,
		IsActive:           b.IsActive,
		PurchasePrice:      b.PurchasePrice,
		SellingPrice:       b.SellingPrice,
		Margin:             b.Margin(),
		MarginPct:          b.MarginPct(),
		IncomingDocumentID: b.IncomingDocumentID,
	}
}

func toCorrectionLogResponse(l *entity.BatchCorrectionLog) dto.CorrectionLogResponse {
	return dto.CorrectionLogResponse{
		ID:                   l.ID,
		BatchID:              l.BatchID,
		CorrectionDocumentID: l.CorrectionDocumentID,
		Timestamp:            l.Timestamp,
		FieldName:            l.FieldName,
		OldValue:             l.OldValue,
		NewValue:             l.NewValue,
		ChangedBy:            l.ChangedBy,
		Reason:               l.Reason,
	}
}
