// Package store defines the persistence contracts consumed by the service
// layer: entity store interfaces, the DBTX abstraction over connections and
// transactions, sentinel error kinds, and the transaction helper.
package store
