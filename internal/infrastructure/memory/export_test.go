package memory

// RemoveSupplierDependents borra lotes y documentos del proveedor, como haría un DBA.
// El libro no expone borrado de lotes.
func (s *Store) RemoveSupplierDependents(supplierID string) {
	s.writer.Lock()
	defer s.writer.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.committed
	for id, b := range st.batches {
		if b.SupplierID == supplierID {
			delete(st.batches, id)
		}
	}
	for id, d := range st.documents {
		if d.SupplierID == supplierID {
			delete(st.documents, id)
			for lid, l := range st.lines {
				if l.DocumentID == id {
					delete(st.lines, lid)
				}
			}
		}
	}
}
