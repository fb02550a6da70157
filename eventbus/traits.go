package eventbus

import "time"

// Traits are reusable attribute bundles composed into concrete event types by
// struct embedding. Each trait contributes its own validation messages, so
// the union of required-field checks is independent of embedding order.
// Handlers discover trait data through the Has* capability interfaces instead
// of reflective probing.

// HasActor is implemented by events that carry the acting user.
type HasActor interface {
	ActorID() string
	ActorEmail() string
}

// HasChangeTracking is implemented by events that record field-level changes.
type HasChangeTracking interface {
	ChangedFields() []string
	OldValues() map[string]any
	NewValues() map[string]any
}

// HasSecurityContext is implemented by events that carry request origin data.
type HasSecurityContext interface {
	IPAddress() string
	UserAgent() string
}

// HasReason is implemented by events that carry a why.
type HasReason interface {
	Reason() string
}

// HasDuration is implemented by events that carry how long the operation
// behind them took, in milliseconds. The boolean reports whether a duration
// was actually recorded.
type HasDuration interface {
	Duration() (float64, bool)
}

// HasAuditStamp is implemented by events that carry an explicit audit
// timestamp separate from their occurrence time.
type HasAuditStamp interface {
	AuditedAt() time.Time
}

/***** Actor *****/

// Actor answers "who": the required acting user id and an optional email.
type Actor struct {
	ID    string
	Email string
}

// ActorID returns the id of the acting user.
func (a Actor) ActorID() string {
	return a.ID
}

// ActorEmail returns the optional email of the acting user.
func (a Actor) ActorEmail() string {
	return a.Email
}

// ValidationMessages returns the trait's failure messages.
func (a Actor) ValidationMessages() []string {
	if a.ID == "" {
		return []string{"actor_id must not be empty"}
	}

	return nil
}

// Attributes returns the trait's contribution to an event's ToMap snapshot.
func (a Actor) Attributes() map[string]any {
	attributes := map[string]any{"actor_id": a.ID}
	if a.Email != "" {
		attributes["actor_email"] = a.Email
	}

	return attributes
}

/***** ChangeTracking *****/

// ChangeTracking answers "what changed": the ordered list of changed fields
// plus the old and new values.
type ChangeTracking struct {
	Fields []string
	Old    map[string]any
	New    map[string]any
}

// ChangedFields returns a copy of the ordered changed-field names.
func (c ChangeTracking) ChangedFields() []string {
	return append([]string(nil), c.Fields...)
}

// OldValues returns a copy of the values before the change.
func (c ChangeTracking) OldValues() map[string]any {
	return copyAnyMap(c.Old)
}

// NewValues returns a copy of the values after the change.
func (c ChangeTracking) NewValues() map[string]any {
	return copyAnyMap(c.New)
}

// ValidationMessages returns the trait's failure messages.
func (c ChangeTracking) ValidationMessages() []string {
	if len(c.Fields) == 0 {
		return []string{"changed_fields must not be empty"}
	}

	return nil
}

// Attributes returns the trait's contribution to an event's ToMap snapshot.
func (c ChangeTracking) Attributes() map[string]any {
	return map[string]any{
		"changed_fields": c.ChangedFields(),
		"old_values":     c.OldValues(),
		"new_values":     c.NewValues(),
	}
}

/***** SecurityContext *****/

// SecurityContext answers "where from": optional request origin data.
type SecurityContext struct {
	IP    string
	Agent string
}

// IPAddress returns the originating IP address, empty if unknown.
func (s SecurityContext) IPAddress() string {
	return s.IP
}

// UserAgent returns the originating user agent, empty if unknown.
func (s SecurityContext) UserAgent() string {
	return s.Agent
}

// ValidationMessages returns the trait's failure messages.
// Both attributes are optional, so there are none.
func (s SecurityContext) ValidationMessages() []string {
	return nil
}

// Attributes returns the trait's contribution to an event's ToMap snapshot.
func (s SecurityContext) Attributes() map[string]any {
	attributes := make(map[string]any, 2)
	if s.IP != "" {
		attributes["ip_address"] = s.IP
	}
	if s.Agent != "" {
		attributes["user_agent"] = s.Agent
	}

	return attributes
}

/***** ReasonTrait *****/

// ReasonTrait answers "why": a required human-readable explanation.
//
// The type name deviates from the other traits on purpose: naming it after
// its accessor would make the embedded field shadow the promoted Reason
// method, silently dropping HasReason from every composed type's method set.
type ReasonTrait struct {
	Value string
}

// Reason returns the explanation for the recorded occurrence.
func (r ReasonTrait) Reason() string {
	return r.Value
}

// ValidationMessages returns the trait's failure messages.
func (r ReasonTrait) ValidationMessages() []string {
	if r.Value == "" {
		return []string{"reason must not be empty"}
	}

	return nil
}

// Attributes returns the trait's contribution to an event's ToMap snapshot.
func (r ReasonTrait) Attributes() map[string]any {
	return map[string]any{"reason": r.Value}
}

// Ensure the embedded trait actually promotes the capability.
var _ HasReason = struct{ ReasonTrait }{}

/***** AuditStamp *****/

// AuditStamp carries an explicit audit timestamp for event types that want
// one separate from their occurrence time.
type AuditStamp struct {
	At time.Time
}

// NewAuditStampNow creates an AuditStamp for the current clock reading.
func NewAuditStampNow() AuditStamp {
	return AuditStamp{At: time.Now().UTC()}
}

// AuditedAt returns the audit timestamp.
func (a AuditStamp) AuditedAt() time.Time {
	return a.At
}

// ValidationMessages returns the trait's failure messages.
func (a AuditStamp) ValidationMessages() []string {
	if a.At.IsZero() {
		return []string{"audited_at must not be the zero time"}
	}

	return nil
}

// Attributes returns the trait's contribution to an event's ToMap snapshot.
func (a AuditStamp) Attributes() map[string]any {
	return map[string]any{"audited_at": a.At.Format(time.RFC3339Nano)}
}

/***** Timing *****/

// Timing carries how long the operation behind an event took. A zero value
// means no duration was recorded.
type Timing struct {
	DurationMillis float64
}

// Duration returns the recorded duration in milliseconds and whether one was
// recorded at all.
func (t Timing) Duration() (float64, bool) {
	return t.DurationMillis, t.DurationMillis != 0
}

// ValidationMessages returns the trait's failure messages.
func (t Timing) ValidationMessages() []string {
	if t.DurationMillis < 0 {
		return []string{"duration must not be negative"}
	}

	return nil
}

// Attributes returns the trait's contribution to an event's ToMap snapshot.
func (t Timing) Attributes() map[string]any {
	if t.DurationMillis == 0 {
		return map[string]any{}
	}

	return map[string]any{"duration": t.DurationMillis}
}

// MergeAttributes unions attribute snapshots into the base snapshot, e.g. for
// a composed event type's ToMap. Later maps win on key collisions, which
// cannot happen for disjoint traits.
func MergeAttributes(base map[string]any, traits ...map[string]any) map[string]any {
	for _, trait := range traits {
		for key, val := range trait {
			base[key] = val
		}
	}

	return base
}

func copyAnyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, val := range in {
		out[key] = val
	}

	return out
}
