package httpserver

import "net/http"

// swaggerDoc is served to the embedded swagger UI. Hand-maintained until
// generated docs are wired into the build.
const swaggerDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "Agora Governance API",
    "description": "Voting session lifecycle, voter registration, proposals, votes, and tallying.",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/api/governance/v1/sessions": {
      "post": {
        "summary": "Create a voting session",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"}
        ],
        "responses": {"201": {"description": "Created"}}
      }
    },
    "/api/governance/v1/sessions/count": {
      "get": {
        "summary": "Count sessions",
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}": {
      "get": {
        "summary": "Session state and statistics",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/cancel": {
      "post": {
        "summary": "Cancel a session",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Cancelled"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/voters": {
      "get": {
        "summary": "List registered voter addresses",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}}
      },
      "post": {
        "summary": "Register a voter",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Registered"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/voters/batch": {
      "post": {
        "summary": "Register a batch of voters",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/voters/{address}": {
      "get": {
        "summary": "Voter registration and vote status",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"},
          {"name": "address", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/proposals": {
      "get": {
        "summary": "List proposals",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}}
      },
      "post": {
        "summary": "Submit a proposal",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"201": {"description": "Created"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/proposals/{proposal_id}": {
      "get": {
        "summary": "Proposal by id",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"},
          {"name": "proposal_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/proposals/open": {
      "post": {
        "summary": "Open proposal registration",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Transitioned"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/proposals/close": {
      "post": {
        "summary": "Close proposal registration",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Transitioned"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/voting/open": {
      "post": {
        "summary": "Open the voting window",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Transitioned"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/voting/close": {
      "post": {
        "summary": "Close the voting window",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Transitioned"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/votes": {
      "post": {
        "summary": "Cast a vote",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"204": {"description": "Vote recorded"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/tally": {
      "post": {
        "summary": "Tally votes and determine the winner",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"},
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "Tallied"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/winner": {
      "get": {
        "summary": "Winning proposal of a tallied session",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "No winner"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/parent": {
      "get": {
        "summary": "Parent session of a renewal",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/governance/v1/sessions/{session_id}/child": {
      "get": {
        "summary": "Child renewal session",
        "parameters": [
          {"name": "session_id", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/gate/v1/pause": {
      "post": {
        "summary": "Pause all state-changing operations",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"}
        ],
        "responses": {"204": {"description": "Paused"}}
      }
    },
    "/api/gate/v1/resume": {
      "post": {
        "summary": "Resume state-changing operations",
        "parameters": [
          {"name": "X-User-Id", "in": "header", "required": true, "type": "string"}
        ],
        "responses": {"204": {"description": "Resumed"}}
      }
    },
    "/api/gate/v1/status": {
      "get": {
        "summary": "Operational status",
        "responses": {"200": {"description": "OK"}}
      }
    }
  }
}`

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(swaggerDoc))
}
