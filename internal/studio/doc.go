// Package studio talks to the Cucumber Studio REST API.
//
// Every upstream call goes through Client.Do, which:
//
//   - serves GET requests from the response cache when caching is enabled,
//     and stores successful GET bodies in it;
//   - purges the keys derived by cache.Invalidator after every successful
//     non-GET request;
//   - classifies failures into an *Error of kind KindRejected,
//     KindNoResponse or KindRequestSetup, logs them in full and returns
//     them to the caller. Nothing is retried.
//
// Request and response bodies follow the JSON:API conventions; see
// Resource, Document and Payload.
package studio
