package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/library"
)

type MembersController struct {
	membership MembershipService
	audit      AuditRecorder
}

func NewMembersController(membership MembershipService, recorder AuditRecorder) *MembersController {
	return &MembersController{membership: membership, audit: recorder}
}

// GetActiveMembers lists active members ordered by name.
// GET /api/members
func (mc *MembersController) GetActiveMembers(c *gin.Context) {
	members, err := mc.membership.ListActiveMembers(c.Request.Context())
	if err != nil {
		respondLibraryError(c, err, "list members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

// GetMember returns one member.
// GET /api/members/:id
func (mc *MembersController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, err := mc.membership.GetMember(c.Request.Context(), id)
	if err != nil {
		respondLibraryError(c, err, "get member")
		return
	}
	c.JSON(http.StatusOK, member)
}

// CreateMember registers a member.
// POST /api/members
func (mc *MembersController) CreateMember(c *gin.Context) {
	var req library.NewMember
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	member, err := mc.membership.AddMember(c.Request.Context(), req)
	var memberID uint
	if member != nil {
		memberID = member.ID
	}
	if mc.audit != nil {
		mc.audit.LogMembership(auth.ActorFromContext(c), "member_add", memberID, fmt.Sprintf("Registered %q", req.FullName), err)
	}
	if err != nil {
		respondLibraryError(c, err, "add member")
		return
	}
	respondCreated(c, member)
}

// DeactivateMember marks a member inactive.
// POST /api/members/:id/deactivate
func (mc *MembersController) DeactivateMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := mc.membership.DeactivateMember(c.Request.Context(), id)
	if mc.audit != nil {
		mc.audit.LogMembership(auth.ActorFromContext(c), "member_deactivate", id, fmt.Sprintf("Deactivated member %d", id), err)
	}
	if err != nil {
		respondLibraryError(c, err, "deactivate member")
		return
	}
	respondSuccess(c, "member deactivated", nil)
}
