package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/agent"
)

var errMissingFile = errors.New("file is required")

type speechRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

type queryRequest struct {
	Text string `json:"text"`
}

type historyResponse struct {
	Success      bool             `json:"success"`
	SessionID    string           `json:"session_id"`
	MessageCount int              `json:"message_count"`
	Messages     []domain.Message `json:"messages"`
}

func registerRoutes(router *gin.Engine, opts Options) {
	a := opts.Agent

	router.GET("/health", handleHealth(a))
	router.GET("/debug/api-key", handleDebugKeys(opts.Credentials))

	router.POST("/generate_speech", handleSpeak(a))
	router.POST("/transcribe/file", handleTranscribe(a))
	router.POST("/tts/echo", handleAudio(a.Echo))
	router.POST("/llm/query", handleQuery(a))
	router.POST("/llm/voice-query", handleAudio(a.VoiceQuery))

	router.POST("/agent/session/new", handleNewSession(a))
	router.GET("/agent/chat/:id/history", handleHistory(a))
	router.POST("/agent/chat/:id", handleChat(a))

	if opts.AudioDir != "" {
		router.Static("/audio", opts.AudioDir)
	}
}

func handleHealth(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := a.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":           "healthy",
			"transcriber":      s.Transcriber,
			"generator":        s.Generator,
			"synthesizer":      s.Synthesizer,
			"synthesis_bypass": s.Bypass,
		})
	}
}

func handleDebugKeys(previews map[string]*string) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gin.H{}
		for name, preview := range previews {
			out[name+"_configured"] = preview != nil
			out[name+"_preview"] = preview
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleSpeak(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req speechRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a.Speak(c.Request.Context(), req.Text, req.VoiceID))
	}
}

func handleTranscribe(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		audio, closeFn, err := upload(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		defer closeFn()
		c.JSON(http.StatusOK, a.Transcribe(c.Request.Context(), audio))
	}
}

type audioPipeline func(ctx context.Context, audio agent.Audio, voice string) domain.Result

func handleAudio(run audioPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		audio, closeFn, err := upload(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		defer closeFn()
		c.JSON(http.StatusOK, run(c.Request.Context(), audio, c.Query("voice_id")))
	}
}

func handleQuery(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		text, err := a.Ask(c.Request.Context(), req.Text)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": text})
	}
}

func handleNewSession(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.NewSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, domain.Result{
			Success:   true,
			SessionID: id,
			Message:   "New chat session created",
		})
	}
}

func handleHistory(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		h, err := a.History(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		msgs := h.Messages
		if msgs == nil {
			msgs = []domain.Message{}
		}
		c.JSON(http.StatusOK, historyResponse{
			Success:      h.Exists,
			SessionID:    h.SessionID,
			MessageCount: len(msgs),
			Messages:     msgs,
		})
	}
}

func handleChat(a Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		audio, closeFn, err := upload(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		defer closeFn()
		c.JSON(http.StatusOK, a.Chat(c.Request.Context(), c.Param("id"), audio, c.Query("voice_id")))
	}
}

// upload opens the multipart "file" field.
func upload(c *gin.Context) (agent.Audio, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return agent.Audio{}, nil, errMissingFile
	}
	f, err := fh.Open()
	if err != nil {
		return agent.Audio{}, nil, err
	}
	return agent.Audio{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
