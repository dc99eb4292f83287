package indexer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const maxPageSize = 100

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getMembers", s.handleGetMembers)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

type page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (p *page) normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize <= 0 || p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

type ProposalInfo struct {
	Proposal   Proposal    `json:"proposal"`
	State      string      `json:"state"`
	Votes      []Vote      `json:"votes"`
	Executions []Execution `json:"executions"`
}

type GetProposalsReq struct {
	ProposalId uint64 `json:"proposalId"`
	Proposer   string `json:"proposer"`
	page
}

type GetProposalResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
	Time      uint64         `json:"time"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalResponse
	response.Proposals = make([]ProposalInfo, 0)
	response.Time = s.indexer.Time
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()

	if requestData.ProposalId != 0 {
		proposal, err := s.indexer.getProposalById(requestData.ProposalId)
		if gorm.IsRecordNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		info, err := s.proposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	var proposals []Proposal
	var err error
	if requestData.Proposer != "" {
		proposals, response.Total, err = s.indexer.getProposalsByProposer(requestData.Proposer, requestData.Page, requestData.PageSize)
	} else {
		proposals, response.Total, err = s.indexer.getProposals(requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, proposal := range proposals {
		info, err := s.proposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
	}
	c.JSON(http.StatusOK, response)
}

func (s *Service) proposalInfo(p Proposal) (ProposalInfo, error) {
	votes, _, err := s.indexer.getVotes("proposal = ?", p.Id, 0, maxPageSize)
	if err != nil {
		return ProposalInfo{}, err
	}
	executions, err := s.indexer.getExecutions(p.Id)
	if err != nil {
		return ProposalInfo{}, err
	}
	return ProposalInfo{
		Proposal:   p,
		State:      s.indexer.State(&p).String(),
		Votes:      votes,
		Executions: executions,
	}, nil
}

type GetVotesReq struct {
	ProposalId uint64 `json:"proposalId"`
	Voter      string `json:"voter"`
	page
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()
	var response GetVotesResponse
	var err error
	switch {
	case requestData.ProposalId != 0:
		response.Votes, response.Total, err = s.indexer.getVotes("proposal = ?", requestData.ProposalId, requestData.Page, requestData.PageSize)
	case requestData.Voter != "":
		response.Votes, response.Total, err = s.indexer.getVotes("voter = ?", requestData.Voter, requestData.Page, requestData.PageSize)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter is required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if response.Votes == nil {
		response.Votes = make([]Vote, 0)
	}
	c.JSON(http.StatusOK, response)
}

type GetMembersReq struct {
	Address string `json:"address"`
	page
}

type MemberInfo struct {
	Member        Member         `json:"member"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

type GetMembersResponse struct {
	Members     []MemberInfo `json:"members"`
	Total       uint64       `json:"total"`
	Contributed string       `json:"contributed"`
}

func (s *Service) handleGetMembers(c *gin.Context) {
	var requestData GetMembersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()
	response := GetMembersResponse{Members: make([]MemberInfo, 0)}
	total, err := s.indexer.contributedTotal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Contributed = total.String()

	if requestData.Address != "" {
		m, contributions, err := s.indexer.getMember(requestData.Address)
		if gorm.IsRecordNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Members = append(response.Members, MemberInfo{Member: m, Contributions: contributions})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}
	members, count, err := s.indexer.getMembers(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = count
	for _, m := range members {
		response.Members = append(response.Members, MemberInfo{Member: m})
	}
	c.JSON(http.StatusOK, response)
}
