package nav

// Planner queues path requests and drains them under a node-expansion
// budget. The budget is counted work, never wall time, so two instances
// stepping the same match defer the same requests on the same ticks.
type Planner struct {
	budget  int
	queue   []Request
	pending map[string]int
}

const defaultExpansionBudget = 4096

// NewPlanner returns a planner that expands at most budget search nodes
// per Run call. Non-positive budgets fall back to the default.
func NewPlanner(budget int) *Planner {
	if budget <= 0 {
		budget = defaultExpansionBudget
	}
	return &Planner{
		budget:  budget,
		pending: make(map[string]int),
	}
}

// Submit enqueues a request. A request for an ID that is already queued
// replaces it in place, keeping the original queue position.
func (p *Planner) Submit(req Request) {
	if idx, ok := p.pending[req.ID]; ok {
		p.queue[idx] = req
		return
	}
	p.pending[req.ID] = len(p.queue)
	p.queue = append(p.queue, req)
}

// QueueLen reports how many requests are waiting.
func (p *Planner) QueueLen() int { return len(p.queue) }

// Run drains the queue in submission order until the expansion budget is
// spent, returning finished results and the number of requests deferred
// to the next call. At least one request is served per call so a single
// oversized search cannot starve the queue forever.
func (p *Planner) Run() ([]Result, int) {
	if len(p.queue) == 0 {
		return nil, 0
	}
	var results []Result
	used := 0
	served := 0
	for len(p.queue) > 0 {
		if served > 0 && used >= p.budget {
			break
		}
		req := p.queue[0]
		p.queue = p.queue[1:]
		delete(p.pending, req.ID)
		for id := range p.pending {
			p.pending[id]--
		}
		waypoints, expanded, err := planRequest(req)
		used += expanded
		served++
		results = append(results, Result{ID: req.ID, Waypoints: waypoints, Err: err})
	}
	return results, len(p.queue)
}

// planRequest tries the navmesh fast path first. Off-mesh endpoints and
// disconnected corridors fall back to grid A*, with the mesh expansions
// still charged against the budget.
func planRequest(req Request) ([]Point, int, error) {
	meshExpanded := 0
	if req.Mesh != nil {
		waypoints, expanded, ok := req.Mesh.FindPath(req.From, req.To)
		if ok {
			return waypoints, expanded, nil
		}
		meshExpanded = expanded
	}
	waypoints, expanded, err := findPath(req.Cost, req.From, req.To)
	return waypoints, meshExpanded + expanded, err
}
