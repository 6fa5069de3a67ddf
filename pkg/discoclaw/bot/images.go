package bot

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// visionPrompt is the canned instruction sent with each image attachment.
const visionPrompt = "Describe the following image in detail:"

// appendImageSummaries enriches the prompt with a textual description of
// every image attachment, numbered in attachment order. Non-image
// attachments are skipped, and a failed download or backend call skips just
// that attachment; the prompt is best-effort enrichment, never a reason to
// drop the event.
func (b *Bot) appendImageSummaries(ctx context.Context, logger *slog.Logger, attachments []*discordgo.MessageAttachment, prompt string) string {
	num := 1
	for _, att := range attachments {
		if !strings.Contains(att.ContentType, "image") {
			continue
		}

		encoded, err := b.downloadAttachment(ctx, att.URL)
		if err != nil {
			logger.Warn("attachment download failed", "url", att.URL, "error", err)
			continue
		}

		summary, err := b.gen.Generate(ctx, b.cfg.Ollama.VisionModel, visionPrompt, []string{encoded})
		if err != nil {
			logger.Warn("image description failed", "url", att.URL, "error", err)
			continue
		}

		prompt = fmt.Sprintf("%s Image description #%d: %s", prompt, num, summary)
		num++
	}
	return prompt
}

// downloadAttachment fetches an attachment and returns it base64-encoded for
// the backend.
func (b *Bot) downloadAttachment(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
