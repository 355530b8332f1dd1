package calcom

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/thomas7124/aidentalbackend/internal/appointment"
)

// slotUnavailableMarker appears in Cal.com bodies when no host can take the
// requested time. Cal.com has been observed returning it with a 200 status,
// which is why the marker check outranks the status check.
const slotUnavailableMarker = "no_available"

const slotUnavailableError = "no_available_users_found_error"

// reply is a raw upstream response as seen by the classifier.
type reply struct {
	status int
	body   []byte
	parsed replyBody
}

type replyBody struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// rule is one entry in the ordered classification policy.
type rule struct {
	name    string
	applies func(r reply) bool
	resolve func(r reply) appointment.Outcome
}

// classifyRules is evaluated top to bottom; the first match wins. The order
// is load-bearing: a slot-unavailable marker must be honored even when it
// arrives with a 2xx status, and a 2xx body without a booking id must never
// pass as success.
var classifyRules = []rule{
	{
		name: "slot unavailable marker",
		applies: func(r reply) bool {
			return r.parsed.Message == slotUnavailableError ||
				strings.Contains(r.parsed.Message, slotUnavailableMarker)
		},
		resolve: func(r reply) appointment.Outcome {
			return appointment.Outcome{
				Status: appointment.OutcomeSlotUnavailable,
				Detail: r.parsed.Message,
			}
		},
	},
	{
		name: "http failure status",
		applies: func(r reply) bool {
			return r.status < http.StatusOK || r.status >= http.StatusMultipleChoices
		},
		resolve: func(r reply) appointment.Outcome {
			return appointment.Outcome{
				Status: appointment.OutcomeUpstreamError,
				Detail: fmt.Sprintf("status %d: %s", r.status, truncate(r.body, 500)),
			}
		},
	},
	{
		name: "missing booking id",
		applies: func(r reply) bool {
			return r.parsed.ID == 0
		},
		resolve: func(r reply) appointment.Outcome {
			return appointment.Outcome{
				Status: appointment.OutcomeUpstreamError,
				Detail: fmt.Sprintf("success status without booking id: %s", truncate(r.body, 500)),
			}
		},
	},
	{
		name:    "success",
		applies: func(reply) bool { return true },
		resolve: func(r reply) appointment.Outcome {
			return appointment.Outcome{
				Status:  appointment.OutcomeSucceeded,
				Booking: json.RawMessage(r.body),
			}
		},
	},
}

// classify maps a raw upstream response to exactly one outcome. A non-JSON
// body is an upstream error before the policy runs: the classifier only
// trusts what it can parse.
func classify(status int, body []byte) appointment.Outcome {
	var parsed replyBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return appointment.Outcome{
			Status: appointment.OutcomeUpstreamError,
			Detail: fmt.Sprintf("non-JSON response (status %d): %s", status, truncate(body, 200)),
		}
	}

	r := reply{status: status, body: body, parsed: parsed}
	for _, rule := range classifyRules {
		if rule.applies(r) {
			return rule.resolve(r)
		}
	}
	// Unreachable: the last rule always applies.
	return appointment.Outcome{Status: appointment.OutcomeUpstreamError, Detail: "no classification rule matched"}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
