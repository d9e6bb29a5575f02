package coub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	ctxerrors "github.com/salmonumbrella/coubctl/internal/errors"
)

// Reward is one granted reward. Only the ID is interpreted; the full object
// is kept for output.
type Reward struct {
	ID  int             `json:"id"`
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw object alongside the decoded ID.
func (r *Reward) UnmarshalJSON(data []byte) error {
	var probe struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	r.ID = 0
	if probe.ID != nil {
		r.ID = *probe.ID
	}
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the raw object when present.
func (r Reward) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(struct {
		ID int `json:"id"`
	}{r.ID})
}

// RewardIDs returns the IDs of the given rewards.
func RewardIDs(rewards []Reward) []int {
	ids := make([]int, 0, len(rewards))
	for _, r := range rewards {
		ids = append(ids, r.ID)
	}
	return ids
}

// UserRewards lists rewards already granted to the account.
func (c *Client) UserRewards(ctx context.Context, bearer, tgAuth string) ([]Reward, error) {
	var out []Reward
	err := c.doJSON(ctx, request{
		method:  http.MethodGet,
		url:     c.rewardsURL + "/get_user_rewards",
		headers: bearerHeaders(bearer, tgAuth),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ErrClaimRejected is returned when complete_task answers 2xx with an empty
// or falsy body.
var ErrClaimRejected = errors.New("claim returned no result")

// CompleteTask claims the reward for taskID and returns the raw response.
func (c *Client) CompleteTask(ctx context.Context, bearer, tgAuth string, taskID int) (json.RawMessage, error) {
	req := request{
		method:  http.MethodGet,
		url:     c.rewardsURL + "/complete_task",
		query:   url.Values{"task_reward_id": {strconv.Itoa(taskID)}},
		headers: bearerHeaders(bearer, tgAuth),
	}
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ctxerrors.WrapContext(req.method, req.fullURL(), resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	body = bytes.TrimSpace(body)
	if isFalsy(body) {
		return nil, ctxerrors.WrapContext(req.method, req.fullURL(), resp.StatusCode, ErrClaimRejected)
	}
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		body = quoted
	}
	return json.RawMessage(body), nil
}

func isFalsy(body []byte) bool {
	switch string(body) {
	case "", "null", "false", `""`, "0":
		return true
	}
	return false
}
