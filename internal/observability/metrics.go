package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MNotificationDeliveries  MetricKey = "notification_deliveries_total"
)

// Label keys expected by each metric, in registration order.
var MetricLabels = map[MetricKey][]string{
	MUsecaseRequests:         {"use_case", "outcome"},
	MUsecaseDuration:         {"use_case"},
	MHTTPRequests:            {"method", "route", "status"},
	MHTTPRequestDuration:     {"method", "route", "status"},
	MExternalRequests:        {"peer", "endpoint", "outcome"},
	MExternalRequestDuration: {"peer", "endpoint"},
	MNotificationDeliveries:  {"outcome"},
}

// MetricHelp documents every metric key for the registry.
var MetricHelp = map[MetricKey]string{
	MUsecaseRequests:         "Total number of use case invocations.",
	MUsecaseDuration:         "Duration of use case execution in seconds.",
	MHTTPRequests:            "Total number of HTTP requests served.",
	MHTTPRequestDuration:     "Duration of HTTP requests in seconds.",
	MExternalRequests:        "Total number of outbound calls to external peers.",
	MExternalRequestDuration: "Duration of outbound calls to external peers in seconds.",
	MNotificationDeliveries:  "Count of notification delivery attempts by outcome.",
}
