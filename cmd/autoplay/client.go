package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/rat-race-game/api"
	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/service"
)

// Client plays one seat through the REST API.
type Client struct {
	baseURL string
	userID  string
	name    string
	client  *http.Client
}

func NewClient(baseURL, userID, name string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		userID:  userID,
		name:    name,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateRoom(ctx context.Context, in service.CreateRoomInput) (*lobby.RoomView, error) {
	var room lobby.RoomView
	if err := c.do(ctx, http.MethodPost, "/api/rooms", in, &room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

func (c *Client) JoinRoom(ctx context.Context, roomID, password string) (*lobby.RoomView, error) {
	var room lobby.RoomView
	in := service.JoinRoomInput{Password: password, PlayerName: c.name}
	if err := c.do(ctx, http.MethodPost, c.roomPath(roomID, "join"), in, &room); err != nil {
		return nil, fmt.Errorf("join room: %w", err)
	}
	return &room, nil
}

func (c *Client) Ready(ctx context.Context, roomID, dream string) error {
	in := service.ReadyInput{Ready: true, Dream: dream}
	if err := c.do(ctx, http.MethodPost, c.roomPath(roomID, "ready"), in, nil); err != nil {
		return fmt.Errorf("ready: %w", err)
	}
	return nil
}

func (c *Client) StartGame(ctx context.Context, roomID string) (*engine.GameState, error) {
	return c.stateCall(ctx, "start game", c.roomPath(roomID, "start"), nil)
}

func (c *Client) GetState(ctx context.Context, roomID string) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.roomPath(roomID, "state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) Roll(ctx context.Context, roomID string) (*service.RollResult, error) {
	var result service.RollResult
	if err := c.do(ctx, http.MethodPost, c.roomPath(roomID, "roll"), nil, &result); err != nil {
		return nil, fmt.Errorf("roll: %w", err)
	}
	return &result, nil
}

func (c *Client) ChooseDeal(ctx context.Context, roomID string, size engine.DealSize) (*engine.GameState, error) {
	return c.stateCall(ctx, "choose deal", c.roomPath(roomID, "deal"), map[string]any{"size": size})
}

func (c *Client) Buy(ctx context.Context, roomID string, quantity int) (*engine.GameState, error) {
	return c.stateCall(ctx, "buy", c.roomPath(roomID, "buy"), map[string]any{"quantity": quantity})
}

func (c *Client) EndTurn(ctx context.Context, roomID string) (*engine.GameState, error) {
	return c.stateCall(ctx, "end turn", c.roomPath(roomID, "end-turn"), nil)
}

func (c *Client) stateCall(ctx context.Context, action, path string, body any) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodPost, path, body, &state); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return &state, nil
}

func (c *Client) roomPath(roomID, action string) string {
	return "/api/rooms/" + roomID + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.HeaderUserID, c.userID)
	req.Header.Set(api.HeaderUserName, c.name)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("%s - %s", resp.Status, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
