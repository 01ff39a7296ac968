package dto

// PageRequest paginación de los listados (?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage límite 20 cuando no se informa; offset nunca negativo.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse página devuelta y total de registros que cumplen el filtro.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewPageResponse arma la página a partir de la solicitud ya normalizada.
func NewPageResponse(p PageRequest, total int) PageResponse {
	return PageResponse{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Total:   total,
		HasMore: p.Offset+p.Limit < total,
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
