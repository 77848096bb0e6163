package dingstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Production REST hosts. Overridable via the builder for testing.
const (
	DefaultAPIBaseURL  = "https://api.dingtalk.com"
	DefaultOAPIBaseURL = "https://oapi.dingtalk.com"
)

// REST paths for the thin outbound helpers that accompany the stream
// session, resolved against the api/oapi base URLs.
const (
	batchSendPath   = "/v1.0/robot/oToMessages/batchSend"
	groupSendPath   = "/v1.0/robot/groupMessages/send"
	downloadPath    = "/v1.0/robot/messageFiles/download"
	mediaUploadPath = "/media/upload"
)

// post issues an authenticated JSON POST and decodes the response into out.
// The access token rides in the x-acs-dingtalk-access-token header.
func (c *Client) post(ctx context.Context, url string, in, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-acs-dingtalk-access-token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: [%d] %s", url, resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

type sendMessageRequest struct {
	RobotCode string `json:"robotCode"`
	MsgKey    string `json:"msgKey"`
	MsgParam  string `json:"msgParam"`

	OpenConversationID string   `json:"openConversationId,omitempty"`
	UserIDs            []string `json:"userIds,omitempty"`
}

func (c *Client) buildSendRequest(message MessageTemplate) (sendMessageRequest, error) {
	param, err := json.Marshal(message)
	if err != nil {
		return sendMessageRequest{}, fmt.Errorf("encode message param: %w", err)
	}
	clientID, _ := c.creds.identity()
	return sendMessageRequest{
		RobotCode: clientID,
		MsgKey:    message.MsgKey(),
		MsgParam:  string(param),
	}, nil
}

// SendGroupMessage posts a templated message to a group conversation.
func (c *Client) SendGroupMessage(ctx context.Context, conversationID string, message MessageTemplate) error {
	req, err := c.buildSendRequest(message)
	if err != nil {
		return err
	}
	req.OpenConversationID = conversationID
	return c.post(ctx, c.apiBaseURL+groupSendPath, req, nil)
}

// SendBatchMessage posts a templated message to several users' single
// chats.
func (c *Client) SendBatchMessage(ctx context.Context, userIDs []string, message MessageTemplate) error {
	req, err := c.buildSendRequest(message)
	if err != nil {
		return err
	}
	req.UserIDs = userIDs
	return c.post(ctx, c.apiBaseURL+batchSendPath, req, nil)
}

// SendSingleMessage posts a templated message to one user's single chat.
func (c *Client) SendSingleMessage(ctx context.Context, userID string, message MessageTemplate) error {
	return c.SendBatchMessage(ctx, []string{userID}, message)
}

// UploadType selects the media kind for Upload.
type UploadType string

const (
	UploadImage UploadType = "image"
	UploadVoice UploadType = "voice"
	UploadVideo UploadType = "video"
	UploadFile  UploadType = "file"
)

type uploadResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	MediaID string `json:"media_id"`
}

// Upload sends a local file to the media endpoint and returns the media id
// used by SampleAudio, SampleFile and SampleVideo templates.
func (c *Client) Upload(ctx context.Context, path string, fileType UploadType) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := form.WriteField("type", string(fileType)); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s%s?access_token=%s", c.oapiBaseURL, mediaUploadPath, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload: [%d] %s", resp.StatusCode, body)
	}

	var res uploadResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("upload: decode response: %w", err)
	}
	if res.ErrCode != 0 {
		return "", fmt.Errorf("upload: %s (errcode=%d)", res.ErrMsg, res.ErrCode)
	}
	return res.MediaID, nil
}

type downloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// DownloadURL exchanges a message download code for a temporary file URL.
func (c *Client) DownloadURL(ctx context.Context, downloadCode string) (string, error) {
	clientID, _ := c.creds.identity()
	var res downloadURLResponse
	err := c.post(ctx, c.apiBaseURL+downloadPath, map[string]string{
		"downloadCode": downloadCode,
		"robotCode":    clientID,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.DownloadURL, nil
}

// Download resolves a download code and streams the file into w.
func (c *Client) Download(ctx context.Context, downloadCode string, w io.Writer) error {
	url, err := c.DownloadURL(ctx, downloadCode)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("download: [%d] %s", resp.StatusCode, body)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
