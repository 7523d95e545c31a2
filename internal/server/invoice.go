package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	invoicedomain "github.com/montessori/ecole/internal/invoice/domain"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

func (s *Server) GetInvoice(c *gin.Context) {
	item, err := s.invoiceSvc.Get(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) PreviewInvoice(c *gin.Context) {
	var req invoicedomain.PreviewRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.invoiceSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GenerateInvoice(c *gin.Context) {
	var req invoicedomain.GenerateRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GenerateMonthInvoices(c *gin.Context) {
	var req invoicedomain.GenerateMonthRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.invoiceSvc.GenerateMonth(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) AddInvoiceLine(c *gin.Context) {
	var req invoicedomain.AddLineRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.AddLine(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateInvoiceLine(c *gin.Context) {
	var req invoicedomain.UpdateLineRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.UpdateLine(c.Request.Context(), param(c, "id"), param(c, "lineId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteInvoiceLine(c *gin.Context) {
	item, err := s.invoiceSvc.DeleteLine(c.Request.Context(), param(c, "id"), param(c, "lineId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RecordInvoicePayment(c *gin.Context) {
	var req invoicedomain.RecordPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.RecordPayment(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteInvoicePayment(c *gin.Context) {
	item, err := s.invoiceSvc.DeletePayment(c.Request.Context(), param(c, "id"), param(c, "paymentId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) SetInvoiceStatus(c *gin.Context) {
	var req invoicedomain.SetStatusRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.SetStatus(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	doc, err := s.invoiceSvc.PDF(c.Request.Context(), param(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writePDF(c, doc.FileName, doc.Content)
}

func writePDF(c *gin.Context, fileName string, content []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", content)
}

func invoiceValidationError(err error) (error, bool) {
	return match(err, []error{
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidStatus,
		invoicedomain.ErrInvalidLine,
		invoicedomain.ErrInvalidLineType,
		invoicedomain.ErrInvalidAmount,
		invoicedomain.ErrInvalidMethod,
		invoicedomain.ErrInvalidPaymentDate,
		billingdomain.ErrInvalidPeriod,
		billingdomain.ErrInvalidRank,
	})
}
