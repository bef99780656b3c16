package httpapi

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	promptmint "github.com/promptmint/promptmint"
)

// mintRequest is the shared body for authorize, direct, and operator minting.
// Rewards are decimal strings so callers never lose precision to JSON numbers.
type mintRequest struct {
	ChainID     uint64   `json:"chainId" binding:"required"`
	Content     string   `json:"content" binding:"required"`
	Beneficiary string   `json:"beneficiary" binding:"required"`
	Rewards     []string `json:"rewards"`
}

type prepareMetaTxRequest struct {
	ChainID     uint64   `json:"chainId" binding:"required"`
	Content     string   `json:"content" binding:"required"`
	Signer      string   `json:"signer" binding:"required"`
	Beneficiary string   `json:"beneficiary" binding:"required"`
	Rewards     []string `json:"rewards"`
	GasLimit    uint64   `json:"gasLimit"`
}

type relayMetaTxRequest struct {
	ChainID   uint64                    `json:"chainId" binding:"required"`
	Request   promptmint.ForwardRequest `json:"request" binding:"required"`
	Signature string                    `json:"signature" binding:"required"`
}

func (s *Server) handleAuthorize(c *gin.Context) {
	var body mintRequest
	if !bindJSON(c, &body) {
		return
	}
	rewards, ok := parseRewards(c, body.Rewards)
	if !ok {
		return
	}

	result, err := s.service.AuthorizeContent(c.Request.Context(), body.ChainID, body.Content, body.Beneficiary, rewards)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (s *Server) handleMintDirect(c *gin.Context) {
	var body mintRequest
	if !bindJSON(c, &body) {
		return
	}
	rewards, ok := parseRewards(c, body.Rewards)
	if !ok {
		return
	}

	result, err := s.service.MintDirect(c.Request.Context(), body.ChainID, body.Content, body.Beneficiary, rewards)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (s *Server) handleMintOperator(c *gin.Context) {
	var body mintRequest
	if !bindJSON(c, &body) {
		return
	}
	rewards, ok := parseRewards(c, body.Rewards)
	if !ok {
		return
	}

	result, err := s.service.MintOperator(c.Request.Context(), body.ChainID, body.Content, body.Beneficiary, rewards)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (s *Server) handlePrepareMetaTx(c *gin.Context) {
	var body prepareMetaTxRequest
	if !bindJSON(c, &body) {
		return
	}
	rewards, ok := parseRewards(c, body.Rewards)
	if !ok {
		return
	}

	payload, err := s.service.PrepareMetaTx(c.Request.Context(), body.ChainID, body.Content, body.Signer, body.Beneficiary, rewards, body.GasLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, payload)
}

func (s *Server) handleRelayMetaTx(c *gin.Context) {
	var body relayMetaTxRequest
	if !bindJSON(c, &body) {
		return
	}

	result, err := s.service.RelayMetaTx(c.Request.Context(), body.ChainID, body.Request, body.Signature)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (s *Server) handleMintStatus(c *gin.Context) {
	chainID, ok := queryChainID(c)
	if !ok {
		return
	}
	digest, err := promptmint.ParseDigest(c.Param("digest"))
	if err != nil {
		respondError(c, err)
		return
	}

	minted, err := s.service.MintStatus(c.Request.Context(), chainID, digest)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"digest": digest.Hex(), "minted": minted})
}

func (s *Server) handleBalance(c *gin.Context) {
	chainID, ok := queryChainID(c)
	if !ok {
		return
	}
	address := c.Param("address")

	balance, err := s.service.Balance(c.Request.Context(), chainID, address)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"address": address, "balance": balance.String()})
}

func (s *Server) handleQuota(c *gin.Context) {
	quota := s.service.Quota()
	if quota == nil {
		c.JSON(http.StatusOK, envelope{Success: true, Data: gin.H{"known": false}})
		return
	}
	respondOK(c, gin.H{"known": true, "quota": quota})
}

func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		respondError(c, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid request body: %v", err))
		return false
	}
	return true
}

func queryChainID(c *gin.Context) (uint64, bool) {
	chainID, err := strconv.ParseUint(c.Query("chainId"), 10, 64)
	if err != nil {
		respondError(c, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"chainId query parameter is required"))
		return 0, false
	}
	return chainID, true
}

func parseRewards(c *gin.Context, raw []string) ([]*big.Int, bool) {
	rewards := make([]*big.Int, 0, len(raw))
	for _, s := range raw {
		amount, ok := new(big.Int).SetString(s, 10)
		if !ok {
			respondError(c, promptmint.Errorf(promptmint.ErrCodeInputValidation,
				"invalid reward amount: %s", s))
			return nil, false
		}
		rewards = append(rewards, amount)
	}
	return rewards, true
}
