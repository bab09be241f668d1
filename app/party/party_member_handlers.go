package party

import (
	"context"
	"net/http"

	"hayoungplace/domain"
	"hayoungplace/pkg/httperror"
)

type JoinPartyHandler struct {
	service *Service
}

func NewJoinPartyHandler(service *Service) *JoinPartyHandler {
	return &JoinPartyHandler{
		service: service,
	}
}

type JoinPartyRequest struct {
	ID       string `params:"id" json:"-"`
	Nickname string `json:"nickname" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=100"`
}

type JoinPartyResponse struct {
	domain.PartyMember
}

func (JoinPartyResponse) StatusCode() int {
	return http.StatusCreated
}

func (h *JoinPartyHandler) Handle(ctx context.Context, req *JoinPartyRequest) (*JoinPartyResponse, error) {
	if err := httperror.Validate(req, "party.join"); err != nil {
		return nil, err
	}

	member, err := h.service.Join(ctx, req.ID, req.Nickname, req.Password)
	if err != nil {
		return nil, err
	}

	return &JoinPartyResponse{PartyMember: member}, nil
}

type LeavePartyHandler struct {
	service *Service
}

func NewLeavePartyHandler(service *Service) *LeavePartyHandler {
	return &LeavePartyHandler{
		service: service,
	}
}

type LeavePartyRequest struct {
	ID       string `params:"id" json:"-"`
	Nickname string `query:"nickname" json:"-" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LeavePartyResponse struct {
}

func (h *LeavePartyHandler) Handle(ctx context.Context, req *LeavePartyRequest) (*LeavePartyResponse, error) {
	if err := httperror.Validate(req, "party.leave"); err != nil {
		return nil, err
	}

	if err := h.service.Leave(ctx, req.ID, req.Nickname, req.Password); err != nil {
		return nil, err
	}

	return nil, httperror.NoContent(
		"party.leave.success",
		"Left the party",
		nil,
	)
}

type GetPartyMembersHandler struct {
	service *Service
}

func NewGetPartyMembersHandler(service *Service) *GetPartyMembersHandler {
	return &GetPartyMembersHandler{
		service: service,
	}
}

type GetPartyMembersRequest struct {
	ID string `params:"id" json:"-"`
}

type GetPartyMembersResponse = []domain.PartyMember

func (h *GetPartyMembersHandler) Handle(ctx context.Context, req *GetPartyMembersRequest) (*GetPartyMembersResponse, error) {
	members, err := h.service.Members(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &members, nil
}
