package http

import (
	"fourline-server/internal/core"
	"fourline-server/internal/proto"
)

// outboundFromEvent maps a core event onto the wire envelope.
func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventGameStarted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventGameStarted,
			Data:  snapshotData(ev.Snapshot),
		}
	case core.EventMoveMade:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMoveMade,
			Data: proto.MoveMadeData{
				Seat:     ev.Move.Seat,
				Row:      ev.Move.Row,
				Col:      ev.Move.Col,
				Board:    ev.Move.Board,
				NextTurn: ev.Move.NextTurn,
			},
		}
	case core.EventGameOver:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventGameOver,
			Data: proto.GameOverData{
				Winner: ev.Over.Winner,
				Draw:   ev.Over.Draw,
				Reason: ev.Over.Reason,
				Line:   ev.Over.Line,
			},
		}
	case core.EventOpponentDisconnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPlayerDisconnected,
			Data:  proto.PresenceData{User: ev.User},
		}
	case core.EventOpponentRejoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPlayerRejoined,
			Data:  proto.PresenceData{User: ev.User},
		}
	case core.EventRejoinSuccess:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRejoinSuccess,
			Data:  snapshotData(ev.Snapshot),
		}
	case core.EventRejoinFailed:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRejoinFailed,
		}
	case core.EventRejected:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Reject.Code, Msg: ev.Reject.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError,
			Error: &proto.Error{Code: "internal", Msg: "unknown event"}}
	}
}

func snapshotData(s *core.Snapshot) proto.SnapshotData {
	return proto.SnapshotData{
		SessionID: s.SessionID,
		Seat:      s.Seat,
		Symbol:    s.Symbol,
		Opponent:  s.Opponent,
		Turn:      s.Turn,
		Board:     s.Board,
	}
}
