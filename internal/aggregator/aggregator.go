// Package aggregator fans a query out to a configured set of peer LogServ
// instances in parallel under a shared deadline, merges their responses,
// and mints a multiplexed continuation token for whichever peers still
// have results to paginate.
package aggregator

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"logserv/internal/aggregator/peer"
	"logserv/internal/httpx"
	"logserv/internal/logging"
	"logserv/internal/token"
	"logserv/internal/validate"
)

// DefaultTimeout is GLOBAL_TIMEOUT from spec.md §4.7: the wall-clock
// deadline after which in-flight peer requests are abandoned.
const DefaultTimeout = 5 * time.Second

// Aggregator serves the fan-out endpoint against a fixed, ordered peer
// list.
type Aggregator struct {
	Peers     []string
	Root      string // used only for the shared path-validation rules
	Timeout   time.Duration
	Transport http.RoundTripper // nil uses http.DefaultTransport
}

type entryOut struct {
	Host  string `json:"host"`
	Entry string `json:"entry"`
}

type messageOut struct {
	Host    string `json:"host"`
	Message string `json:"message"`
}

type response struct {
	Messages []messageOut `json:"messages"`
	Entries  []entryOut   `json:"entries"`
	Cont     string       `json:"cont,omitempty"`
}

type target struct {
	host     string
	rawQuery string
}

func (a *Aggregator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(peer.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := logging.WithRequestID(r.Context(), requestID)
	log := logging.From(ctx)

	req, err := validate.Validate(r, a.Root)
	if err != nil {
		log.Warnf("validation failed for %s: %v", r.URL, err)
		httpx.WriteError(w, log, err)
		return
	}

	targets, err := a.buildTargets(req)
	if err != nil {
		httpx.WriteError(w, log, err)
		return
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	// The inbound path is reused verbatim when building each peer request
	// (per spec.md §4.7): it is never the locally-resolved filesystem path
	// in req, only the original URL path the client sent.
	outcomes := a.fanOut(deadline, r.URL, requestID, r.URL.Path, targets)

	body := a.merge(outcomes)
	httpx.WriteJSON(w, http.StatusOK, body)
	log.Infof("aggregator fan-out peers=%d entries=%d messages=%d", len(targets), len(body.Entries), len(body.Messages))
}

// buildTargets resolves the set of peers to query and each one's outbound
// query string, per spec.md §4.7 step 3: the full configured peer list for
// an initial page, or only the peers named in a demuxed continuation
// token.
func (a *Aggregator) buildTargets(req validate.Request) ([]target, error) {
	if req.Cont != "" {
		secondaries, err := token.DecodeAggregator(req.Cont)
		if err != nil {
			return nil, err
		}
		targets := make([]target, 0, len(secondaries))
		for _, sec := range secondaries {
			q := url.Values{}
			q.Set("cont", sec.Cont)
			targets = append(targets, target{host: sec.Host, rawQuery: q.Encode()})
		}
		return targets, nil
	}

	opts, err := validate.NormalizeSearchOptions(req.N, req.HasS, req.S, nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("n", strconv.Itoa(opts.MaxResults))
	if opts.Query.Text != nil {
		q.Set("s", *opts.Query.Text)
	}
	raw := q.Encode()

	targets := make([]target, 0, len(a.Peers))
	for _, host := range a.Peers {
		targets = append(targets, target{host: host, rawQuery: raw})
	}
	return targets, nil
}

// fanOut issues one request per target concurrently, bounded by ctx's
// deadline, and returns outcomes in target order (each goroutine owns a
// disjoint slice index, so no further synchronization is needed).
func (a *Aggregator) fanOut(ctx context.Context, inbound *url.URL, requestID, path string, targets []target) []peer.Outcome {
	outcomes := make([]peer.Outcome, len(targets))
	client := &http.Client{Transport: a.Transport}
	g, gctx := errgroup.WithContext(ctx)

	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			c := peer.Client{HTTP: client, Inbound: inbound, RequestID: requestID}
			outcomes[i] = c.Fetch(gctx, t.host, path, t.rawQuery)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error; failures are captured as Outcomes
	return outcomes
}

// merge builds the response body from per-peer outcomes: entries
// concatenated in peer order, failures demoted to messages[], and a mux
// continuation token minted from whichever peers still have a cont.
func (a *Aggregator) merge(outcomes []peer.Outcome) response {
	var body response
	var secondaries []token.Secondary

	for _, o := range outcomes {
		switch o.Kind {
		case peer.OK:
			for _, e := range o.Entries {
				body.Entries = append(body.Entries, entryOut{Host: o.Host, Entry: e})
			}
			if o.Cont != "" {
				secondaries = append(secondaries, token.Secondary{Host: o.Host, Cont: o.Cont})
			}
		case peer.PeerError:
			body.Messages = append(body.Messages, messageOut{Host: o.Host, Message: o.Message})
		default:
			body.Messages = append(body.Messages, messageOut{Host: o.Host, Message: transportMessage(o.Cause)})
		}
	}

	if len(secondaries) > 0 {
		if cont, err := token.EncodeAggregator(secondaries); err == nil {
			body.Cont = cont
		}
	}
	if body.Entries == nil {
		body.Entries = []entryOut{}
	}
	if body.Messages == nil {
		body.Messages = []messageOut{}
	}
	return body
}

// transportMessage implements spec.md §4.7 step 5's rule: an aborted
// request contributes its abort cause string, any other exception
// contributes a fixed generic message.
func transportMessage(cause error) string {
	if cause == nil {
		return "Unknown error occured."
	}
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		return cause.Error()
	}
	return "Unknown error occured."
}
