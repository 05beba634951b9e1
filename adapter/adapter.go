/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package adapter connects chat platforms to the switchboard.
// Adapters receive (user id, text) and deliver the switchboard's
// payload back; everything else about a platform stays in here.
package adapter

import (
	"context"
	"log/slog"

	"github.com/Comcast/chatflow/metric"
	"github.com/Comcast/chatflow/switchboard"
)

// Board is the slice of the switchboard that adapters use.
type Board interface {
	HandleMessage(ctx context.Context, userID, text string) (*switchboard.Payload, error)
}

// deliver runs one inbound message and never lets an internal error
// reach the user: any failure yields the generic fallback payload.
func deliver(ctx context.Context, board Board, logger *slog.Logger, adapter, userID, text string) *switchboard.Payload {
	metric.Messages.WithLabelValues(adapter).Inc()

	p, err := board.HandleMessage(ctx, userID, text)
	if err != nil {
		if logger != nil {
			logger.Error("message handling failed",
				"adapter", adapter, "user", userID, "err", err)
		}
		return &switchboard.Payload{
			Texts: append([]string{}, switchboard.DefaultFallbackTexts...),
		}
	}
	return p
}
