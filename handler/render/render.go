package render

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"p2plend/core"
	"p2plend/handler/codes"

	"github.com/sirupsen/logrus"
	"github.com/twitchtv/twirp"
)

// ResponseErrorMessageAsHint internal error msg as hint
var ResponseErrorMessageAsHint bool

func init() {
	v := os.Getenv("RESPONSE_ERROR_MESSAGE_AS_HINT")
	ResponseErrorMessageAsHint, _ = strconv.ParseBool(v)
}

// H shortcut of a json object
type H map[string]interface{}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Hint string `json:"hint,omitempty"`
}

func write(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render: encode")
	}
}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	write(w, http.StatusOK, v)
}

// Error write error, the status follows its twirp code
func Error(w http.ResponseWriter, err error) {
	twerr := codes.From(err)

	resp := errorResponse{
		Code: codes.Code(twerr),
		Msg:  twerr.Msg(),
	}

	if ResponseErrorMessageAsHint && twerr.Code() == twirp.Internal {
		resp.Hint = err.Error()
		resp.Msg = "internal error"
	}

	write(w, codes.Get(twerr), resp)
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, codes.With(twirp.NewError(twirp.InvalidArgument, err.Error()), int(core.ErrInvalidParameter)))
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	Error(w, codes.With(twirp.NotFoundError(err.Error()), int(core.ErrUnknown)))
}
