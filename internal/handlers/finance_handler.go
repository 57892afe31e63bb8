package handlers

import (
	"net/http"

	"churchadmin/internal/models"
	"churchadmin/internal/service"
)

// FinanceHandler handles donations, offerings, pledges and the finance dashboard
type FinanceHandler struct {
	financeService *service.FinanceService
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(financeService *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

// Stats returns the dashboard figures for period (thisMonth by default)
func (h *FinanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stats, err := h.financeService.Stats(service.StatsQuery{
		Period: query.Get("period"),
		Start:  query.Get("start"),
		End:    query.Get("end"),
	})
	if err != nil {
		respondServiceError(w, err, "Error computing finance stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Donations

func (h *FinanceHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	donations, err := h.financeService.ListDonations(query.Get("start"), query.Get("end"))
	if err != nil {
		respondServiceError(w, err, "Error listing donations")
		return
	}
	respondJSON(w, http.StatusOK, donations)
}

func (h *FinanceHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var in service.DonationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.financeService.CreateDonation(in)
	if err != nil {
		respondServiceError(w, err, "Error creating donation")
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (h *FinanceHandler) GetDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.financeService.GetDonation(id)
	if err != nil {
		respondServiceError(w, err, "Error getting donation")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *FinanceHandler) UpdateDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.DonationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.financeService.UpdateDonation(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating donation")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *FinanceHandler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.financeService.DeleteDonation(id); err != nil {
		respondServiceError(w, err, "Error deleting donation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Offerings

func (h *FinanceHandler) ListOfferings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	offerings, err := h.financeService.ListOfferings(query.Get("start"), query.Get("end"))
	if err != nil {
		respondServiceError(w, err, "Error listing offerings")
		return
	}
	respondJSON(w, http.StatusOK, offerings)
}

func (h *FinanceHandler) CreateOffering(w http.ResponseWriter, r *http.Request) {
	var in service.OfferingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	o, err := h.financeService.CreateOffering(in)
	if err != nil {
		respondServiceError(w, err, "Error creating offering")
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *FinanceHandler) GetOffering(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.financeService.GetOffering(id)
	if err != nil {
		respondServiceError(w, err, "Error getting offering")
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *FinanceHandler) UpdateOffering(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.OfferingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	o, err := h.financeService.UpdateOffering(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating offering")
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *FinanceHandler) DeleteOffering(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.financeService.DeleteOffering(id); err != nil {
		respondServiceError(w, err, "Error deleting offering")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pledges

// ListPledges returns pledges with computed totals, optionally filtered by status
func (h *FinanceHandler) ListPledges(w http.ResponseWriter, r *http.Request) {
	pledges, err := h.financeService.ListPledges(models.PledgeStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondServiceError(w, err, "Error listing pledges")
		return
	}
	respondJSON(w, http.StatusOK, pledges)
}

func (h *FinanceHandler) CreatePledge(w http.ResponseWriter, r *http.Request) {
	var in service.PledgeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.financeService.CreatePledge(in)
	if err != nil {
		respondServiceError(w, err, "Error creating pledge")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *FinanceHandler) GetPledge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.financeService.GetPledge(id)
	if err != nil {
		respondServiceError(w, err, "Error getting pledge")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *FinanceHandler) UpdatePledge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.PledgeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.financeService.UpdatePledge(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating pledge")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *FinanceHandler) DeletePledge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.financeService.DeletePledge(id); err != nil {
		respondServiceError(w, err, "Error deleting pledge")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Contributions

func (h *FinanceHandler) ListContributions(w http.ResponseWriter, r *http.Request) {
	pledgeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	contributions, err := h.financeService.ListContributions(pledgeID)
	if err != nil {
		respondServiceError(w, err, "Error listing contributions")
		return
	}
	respondJSON(w, http.StatusOK, contributions)
}

// AddContribution records a payment and returns it with the pledge's new totals
func (h *FinanceHandler) AddContribution(w http.ResponseWriter, r *http.Request) {
	pledgeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.ContributionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, pledge, err := h.financeService.AddContribution(pledgeID, in)
	if err != nil {
		respondServiceError(w, err, "Error adding contribution")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"contribution": c,
		"pledge":       pledge,
	})
}

// DeleteContribution removes a payment and returns the pledge's new totals
func (h *FinanceHandler) DeleteContribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	pledge, err := h.financeService.DeleteContribution(id)
	if err != nil {
		respondServiceError(w, err, "Error deleting contribution")
		return
	}
	respondJSON(w, http.StatusOK, pledge)
}
